// Package loader replays a packaged dataset into the store at startup.
//
// A dataset is a zip archive of JSON documents grouped by kind and numbered
// for deterministic ordering (users_1.json, locations_1.json, visits_1.json,
// ...), plus a two-line options descriptor shipped next to the archive.
package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/roamdb/roamdb/store"
)

// Options is the dataset descriptor: the reference timestamp the store uses
// as "now" for age arithmetic, and whether the archive holds the full or the
// training dataset.
type Options struct {
	Now  int64
	Full bool
}

// ReadOptions parses the descriptor file: first line a unix timestamp,
// second line 1 for the full dataset, 0 for the training one.
func ReadOptions(path string) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return Options{}, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return Options{}, err
	}
	if len(lines) < 2 {
		return Options{}, fmt.Errorf("options file %s: expected 2 lines, got %d", path, len(lines))
	}

	now, err := strconv.ParseInt(lines[0], 10, 64)
	if err != nil {
		return Options{}, fmt.Errorf("options file %s: bad timestamp: %w", path, err)
	}
	return Options{Now: now, Full: lines[1] == "1"}, nil
}

// Loader replays dataset archives through the store's public add
// operations, so load-time data goes through exactly the same validation
// and index maintenance as runtime writes.
type Loader struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a Loader for the given store.
func New(s *store.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		store:  s,
		logger: logger,
	}
}

type usersDocument struct {
	Users []store.User `json:"users"`
}

type locationsDocument struct {
	Locations []store.Location `json:"locations"`
}

type visitsDocument struct {
	Visits []store.Visit `json:"visits"`
}

// Load replays the archive into the store. All users and locations are
// replayed before any visit, whatever order the archive lists the files in,
// because visit insertion validates both foreign keys eagerly. Any store
// error aborts the load.
func (l *Loader) Load(archivePath string) error {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open dataset %s: %w", archivePath, err)
	}
	defer rc.Close()

	files := append([]*zip.File(nil), rc.File...)
	sort.SliceStable(files, func(i, j int) bool {
		return fileNumber(files[i].Name) < fileNumber(files[j].Name)
	})

	// First pass: the entities visits reference.
	for _, f := range files {
		if strings.HasPrefix(f.Name, "users_") || strings.HasPrefix(f.Name, "locations_") {
			if err := l.loadFile(f); err != nil {
				return err
			}
		}
	}
	// Second pass: the visits themselves.
	for _, f := range files {
		if strings.HasPrefix(f.Name, "visits_") {
			if err := l.loadFile(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) loadFile(f *zip.File) error {
	l.logger.Debug("loading dataset file", "name", f.Name)

	r, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}

	switch {
	case strings.HasPrefix(f.Name, "users_"):
		var doc usersDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode %s: %w", f.Name, err)
		}
		for _, u := range doc.Users {
			if err := l.store.AddUser(u); err != nil {
				return fmt.Errorf("%s: user %d: %w", f.Name, u.ID, err)
			}
		}
	case strings.HasPrefix(f.Name, "locations_"):
		var doc locationsDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode %s: %w", f.Name, err)
		}
		for _, loc := range doc.Locations {
			if err := l.store.AddLocation(loc); err != nil {
				return fmt.Errorf("%s: location %d: %w", f.Name, loc.ID, err)
			}
		}
	case strings.HasPrefix(f.Name, "visits_"):
		var doc visitsDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode %s: %w", f.Name, err)
		}
		for _, v := range doc.Visits {
			if err := l.store.AddVisit(v); err != nil {
				return fmt.Errorf("%s: visit %d: %w", f.Name, v.ID, err)
			}
		}
	}
	return nil
}

// fileNumber extracts the numeric suffix of a dataset file name
// ("users_12.json" -> 12). Files without one sort first.
func fileNumber(name string) int {
	underscore := strings.LastIndexByte(name, '_')
	dot := strings.LastIndexByte(name, '.')
	if underscore < 0 || dot <= underscore {
		return 0
	}
	n, err := strconv.Atoi(name[underscore+1 : dot])
	if err != nil {
		return 0
	}
	return n
}
