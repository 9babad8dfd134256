package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()

	mr.Close()
	if _, err := New(context.Background(), mr.Addr()); err == nil {
		t.Fatalf("expected error once server is gone")
	}
}
