package httpapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/roamdb/roamdb/httpapi"
)

func TestServerServesAndShutsDown(t *testing.T) {
	server := httpapi.NewServer(httpapi.ServerConfig{
		Address: "127.0.0.1:0",
		Handler: seededHandler(t),
		Logger:  quietLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	select {
	case <-server.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/users/1", server.Addr()))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewServerRequiresConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing Address")
		}
	}()
	httpapi.NewServer(httpapi.ServerConfig{Handler: http.NewServeMux(), Logger: quietLogger()})
}
