//go:build e2e

// Package e2e contains end-to-end integration tests that boot the full
// server against a generated dataset archive.
// Run with: go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/roamdb/roamdb/httpapi"
	"github.com/roamdb/roamdb/loader"
	"github.com/roamdb/roamdb/store"
)

// datasetNow is the reference instant shipped with the test dataset.
const datasetNow = 1483228800 // 2017-01-01T00:00:00Z

func writeDataset(t *testing.T) (archive, options string) {
	t.Helper()

	dir := t.TempDir()
	archive = filepath.Join(dir, "data.zip")
	options = filepath.Join(dir, "options.txt")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	files := map[string]string{
		// Visits deliberately listed first; the loader must still resolve
		// their references against entities from later files.
		"visits_1.json": `{"visits": [
			{"id": 1, "location": 1, "user": 1, "visited_at": 1262304000, "mark": 3}
		]}`,
		"users_1.json": `{"users": [
			{"id": 1, "email": "vasia@example.com", "first_name": "Vasia", "last_name": "Pupkin", "gender": "m", "birth_date": 315532800},
			{"id": 2, "email": "dasha@example.com", "first_name": "Dasha", "last_name": "Petrova", "gender": "f", "birth_date": 631152000}
		]}`,
		"locations_1.json": `{"locations": [
			{"id": 1, "place": "Musei", "country": "Russia", "city": "Moscow", "distance": 15},
			{"id": 2, "place": "Biblioteka", "country": "Russia", "city": "Moscow", "distance": 3}
		]}`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close archive file: %v", err)
	}

	if err := os.WriteFile(options, []byte(fmt.Sprintf("%d\n0\n", datasetNow)), 0o644); err != nil {
		t.Fatalf("write options: %v", err)
	}
	return archive, options
}

func startServer(t *testing.T) string {
	t.Helper()

	archive, optionsPath := writeDataset(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	options, err := loader.ReadOptions(optionsPath)
	if err != nil {
		t.Fatalf("ReadOptions: %v", err)
	}

	config := store.DefaultConfig()
	config.Now = time.Unix(options.Now, 0).UTC()
	config.Logger = logger
	s := store.New(config)

	if err := loader.New(s, logger).Load(archive); err != nil {
		t.Fatalf("Load: %v", err)
	}

	api := httpapi.NewAPI(httpapi.APIConfig{Store: s, Logger: logger})
	server := httpapi.NewServer(httpapi.ServerConfig{
		Address: "127.0.0.1:0",
		Handler: api.Handler(),
		Logger:  logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})

	select {
	case <-server.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}
	return "http://" + server.Addr().String()
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, strings.TrimSpace(string(body))
}

func post(t *testing.T, url, body string) int {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func TestEndToEnd(t *testing.T) {
	base := startServer(t)

	// Loaded entities are served back.
	status, body := get(t, base+"/users/1")
	if status != http.StatusOK || !strings.Contains(body, "vasia@example.com") {
		t.Fatalf("GET /users/1 = %d %s", status, body)
	}

	status, body = get(t, base+"/users/1/visits")
	if status != http.StatusOK {
		t.Fatalf("GET /users/1/visits = %d %s", status, body)
	}
	var history store.UserVisits
	if err := json.Unmarshal([]byte(body), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Visits) != 1 || history.Visits[0].Place != "Musei" {
		t.Fatalf("history = %+v", history.Visits)
	}

	// Repoint the visit to the other user and location.
	if status := post(t, base+"/visits/1",
		`{"location": 2, "user": 2, "mark": 4, "visited_at": 1293840000}`); status != http.StatusOK {
		t.Fatalf("POST /visits/1 = %d", status)
	}

	status, body = get(t, base+"/users/1/visits")
	if status != http.StatusOK || body != `{"visits":[]}` {
		t.Fatalf("old history = %d %s", status, body)
	}

	status, body = get(t, base+"/users/2/visits")
	if status != http.StatusOK {
		t.Fatalf("GET /users/2/visits = %d %s", status, body)
	}
	if err := json.Unmarshal([]byte(body), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	want := store.UserVisit{Mark: 4, VisitedAt: 1293840000, Place: "Biblioteka"}
	if len(history.Visits) != 1 || history.Visits[0] != want {
		t.Fatalf("new history = %+v, want %+v", history.Visits, want)
	}

	status, body = get(t, base+"/locations/2/avg")
	if status != http.StatusOK || body != `{"avg":4}` {
		t.Fatalf("GET /locations/2/avg = %d %s", status, body)
	}
	status, body = get(t, base+"/locations/1/avg")
	if status != http.StatusOK || body != `{"avg":0}` {
		t.Fatalf("GET /locations/1/avg = %d %s", status, body)
	}

	// Age filter relative to the dataset's fixed "now": Dasha is 27, so
	// fromAge=27 excludes her mark.
	status, body = get(t, base+"/locations/2/avg?fromAge=27")
	if status != http.StatusOK || body != `{"avg":0}` {
		t.Fatalf("GET /locations/2/avg?fromAge=27 = %d %s", status, body)
	}

	// Write rejections leave state intact.
	if status := post(t, base+"/visits/1", `{"mark": 99}`); status != http.StatusBadRequest {
		t.Fatalf("invalid patch = %d, want 400", status)
	}
	status, _ = get(t, base+"/visits/1")
	if status != http.StatusOK {
		t.Fatalf("GET /visits/1 after rejected patch = %d", status)
	}
}
