package mongo

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"client disconnected", mongo.ErrClientDisconnected, true},
		{"wrapped disconnect", fmt.Errorf("insert booking: %w", mongo.ErrClientDisconnected), true},
		{"server selection", topology.ServerSelectionError{Wrapped: errors.New("no reachable servers")}, true},
		{"no documents", mongo.ErrNoDocuments, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnavailable(tt.err); got != tt.want {
				t.Errorf("IsUnavailable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
