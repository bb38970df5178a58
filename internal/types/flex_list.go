// flex_list.go
//
// Recipe development board data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recipe-board.
// recipe-board is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recipe-board is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recipe-board.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"encoding/json"
	"strings"
)

// FlexStrings is a string list that can be unmarshaled from either a JSON
// array or a single JSON string. Instructions and labels use it.
type FlexStrings []string

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = FlexStrings{}
		return nil
	}

	if data[0] == '[' {
		var slice []string
		if err := json.Unmarshal(data, &slice); err != nil {
			return err
		}
		*f = FlexStrings(slice)
		return nil
	}

	var item string
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*f = FlexStrings{item}
	return nil
}

// Trimmed returns the entries with surrounding space removed, dropping blanks.
// Order is kept, so it suits instruction steps.
func (f FlexStrings) Trimmed() []string {
	out := make([]string, 0, len(f))
	for _, s := range f {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Set returns Trimmed without duplicates, first occurrence wins. Labels are a set.
func (f FlexStrings) Set() []string {
	seen := make(map[string]struct{}, len(f))
	out := make([]string, 0, len(f))
	for _, s := range f.Trimmed() {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
