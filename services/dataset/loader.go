// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

var (
	loadMu sync.Mutex
	loaded *Dataset
)

// Load reads the dataset from path, once per process.
//
// Description:
//
//	The first successful call performs file I/O and caches the table;
//	every later call returns the cached table regardless of the path
//	argument. Failures are not cached, so a caller may retry after
//	fixing the file. There is no partial-dataset mode: either the full
//	table loads or the accessor reports failure.
//
// Inputs:
//
//	path - CSV file location
//
// Outputs:
//
//	*Dataset - the loaded table
//	error - ErrDataUnavailable if the file is missing, malformed, or
//	        schema-incompatible
//
// Thread Safety: This function is safe for concurrent use.
func Load(path string) (*Dataset, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if loaded != nil {
		return loaded, nil
	}
	ds, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	loaded = ds
	return ds, nil
}

// ReadFile reads and parses a Titanic CSV without caching.
//
// Load is the production entrypoint; ReadFile exists so tests can load
// fixtures without touching the process-wide cache.
//
// Outputs:
//
//	*Dataset - the parsed table
//	error - ErrDataUnavailable on any failure
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file has no data rows", ErrDataUnavailable)
	}

	return FromRecords(rows[0], rows[1:])
}
