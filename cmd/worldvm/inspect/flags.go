// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"encoding/hex"
	"errors"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const (
	DataKey = "data"
	FileKey = "file"
)

var errNoInput = errors.New("exactly one of --data or --file is required")

func AddFlags(flags *pflag.FlagSet) {
	flags.String(DataKey, "", "Hex encoded world record")
	flags.String(FileKey, "", "File holding a raw world record")
}

type Config struct {
	Record []byte
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	data, err := flags.GetString(DataKey)
	if err != nil {
		return nil, err
	}
	file, err := flags.GetString(FileKey)
	if err != nil {
		return nil, err
	}

	var record []byte
	switch {
	case data != "" && file == "":
		record, err = hex.DecodeString(strings.TrimPrefix(data, "0x"))
	case file != "" && data == "":
		record, err = os.ReadFile(file)
	default:
		return nil, errNoInput
	}
	if err != nil {
		return nil, err
	}
	return &Config{Record: record}, nil
}
