package testutil

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/recipe-board/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Containers are the throwaway services a development or integration run needs.
type Containers struct {
	DB    testcontainers.Container
	Redis testcontainers.Container

	// DBConfig points at the database container from the host.
	DBConfig *config.Config
	// RedisURL points at the redis container from the host, if started.
	RedisURL string
}

// Terminate stops every started container
func (c *Containers) Terminate(ctx context.Context) {
	if c.Redis != nil {
		if err := c.Redis.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate redis: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate database: %v", err)
		}
	}
}

type dbImage struct {
	image string
	port  string
	env   map[string]string
	wait  func(nat.Port) wait.Strategy
}

const (
	containerDatabase = "recipes"
	containerUser     = "recipes"
	containerPassword = "recipes-pass"
)

func imageFor(dbType string) (dbImage, error) {
	switch dbType {
	case "mysql", "mariadb":
		return dbImage{
			image: getEnv("DB_IMAGE", "mariadb:11"),
			port:  "3306",
			env: map[string]string{
				"MARIADB_ROOT_PASSWORD": containerPassword,
				"MARIADB_DATABASE":      containerDatabase,
				"MARIADB_USER":          containerUser,
				"MARIADB_PASSWORD":      containerPassword,
			},
			wait: func(p nat.Port) wait.Strategy {
				return wait.ForAll(
					wait.ForListeningPort(p),
					wait.ForLog("ready for connections").WithOccurrence(2),
				).WithDeadline(90 * time.Second)
			},
		}, nil
	case "postgres", "postgresql":
		return dbImage{
			image: getEnv("DB_IMAGE", "postgres:17-alpine"),
			port:  "5432",
			env: map[string]string{
				"POSTGRES_DB":       containerDatabase,
				"POSTGRES_USER":     containerUser,
				"POSTGRES_PASSWORD": containerPassword,
			},
			wait: func(p nat.Port) wait.Strategy {
				return wait.ForAll(
					wait.ForListeningPort(p),
					wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				).WithDeadline(90 * time.Second)
			},
		}, nil
	}
	return dbImage{}, fmt.Errorf("no container image for database type %s", dbType)
}

// StartDatabase starts a database container of dbType and returns a
// configuration that connects to it
func (c *Containers) StartDatabase(ctx context.Context, dbType string) error {
	img, err := imageFor(dbType)
	if err != nil {
		return err
	}
	port, err := nat.NewPort("tcp", img.port)
	if err != nil {
		return fmt.Errorf("failed to create DB port: %w", err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        img.image,
			ExposedPorts: []string{string(port)},
			Env:          img.env,
			WaitingFor:   img.wait(port),
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", img.image, err)
	}
	c.DB = container

	host, err := container.Host(ctx)
	if err != nil {
		return fmt.Errorf("failed to get database host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return fmt.Errorf("failed to get database port: %w", err)
	}

	c.DBConfig = &config.Config{
		DBType:            dbType,
		DBHost:            host,
		DBPort:            mapped.Port(),
		DBDatabase:        containerDatabase,
		DBUser:            containerUser,
		DBPassword:        containerPassword,
		DBConnectionLimit: 5,
	}
	log.Printf("%s container listening on %s:%s", img.image, host, mapped.Port())
	return nil
}

// StartRedis starts a redis container for webhook de-duplication
func (c *Containers) StartRedis(ctx context.Context) error {
	port, err := nat.NewPort("tcp", "6379")
	if err != nil {
		return fmt.Errorf("failed to create redis port: %w", err)
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("REDIS_IMAGE", "redis:7-alpine"),
			ExposedPorts: []string{string(port)},
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start redis: %w", err)
	}
	c.Redis = container

	host, err := container.Host(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return fmt.Errorf("failed to get redis port: %w", err)
	}
	c.RedisURL = fmt.Sprintf("redis://%s:%s/0", host, mapped.Port())
	log.Printf("redis container listening on %s", c.RedisURL)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
