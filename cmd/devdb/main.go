package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/recipe-board/internal/testutil"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var dbType string
	flag.StringVar(&dbType, "db", "", "database type: mariadb or postgres (default DB_TYPE, then mariadb)")
	var withRedis bool
	flag.BoolVar(&withRedis, "redis", false, "also start redis for webhook de-duplication")
	flag.Parse()

	usage := `
Run a throwaway recipe-board database with the environment variables from the .env file.
Prints the variables that point the server at it, then waits for a signal.

Usage:

devdb [-h] [-f ENV_FILE_PATH] [-db mariadb|postgres] [-redis]

ENV_FILE_PATH: path to the .env file (DB_IMAGE, REDIS_IMAGE, DB_TYPE)

example
  devdb -f /path/to/something/.env -db postgres -redis
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	if dbType == "" {
		dbType = os.Getenv("DB_TYPE")
	}
	if dbType == "" || dbType == "sqlite" {
		dbType = "mariadb"
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	ctx := context.Background()
	containers := &testutil.Containers{}
	if err := containers.StartDatabase(ctx, dbType); err != nil {
		containers.Terminate(ctx)
		log.Fatalf("Failed to start database container: %v\n", err)
	}
	if withRedis {
		if err := containers.StartRedis(ctx); err != nil {
			containers.Terminate(ctx)
			log.Fatalf("Failed to start redis container: %v\n", err)
		}
	}

	env := map[string]string{
		"DB_TYPE":     containers.DBConfig.DBType,
		"DB_HOST":     containers.DBConfig.DBHost,
		"DB_PORT":     containers.DBConfig.DBPort,
		"DB_DATABASE": containers.DBConfig.DBDatabase,
		"DB_USER":     containers.DBConfig.DBUser,
		"DB_PASSWORD": containers.DBConfig.DBPassword,
	}
	if containers.RedisURL != "" {
		env["REDIS_URL"] = containers.RedisURL
	}
	out, err := godotenv.Marshal(env)
	if err != nil {
		log.Fatalf("Failed to render environment: %v\n", err)
	}
	fmt.Println(out)

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating containers...\n", sig)
	containers.Terminate(ctx)
}
