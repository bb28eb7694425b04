package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valkey-io/valkey-go"

	"FeedSignals/internal/identity"
	"FeedSignals/internal/ports"
)

// ValkeyStore keeps the identity log in a Valkey set. The set carries no
// order, so loaded logs are ordered as the server returns them.
type ValkeyStore struct {
	client valkey.Client
	key    string
	logger *slog.Logger
}

var _ ports.IdentityStore = (*ValkeyStore)(nil)

// ValkeyOptions describes how to reach the server.
type ValkeyOptions struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// NewValkeyStore connects and pings the server.
func NewValkeyStore(ctx context.Context, opts ValkeyOptions, logger *slog.Logger) (*ValkeyStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Address == "" || opts.Key == "" {
		return nil, fmt.Errorf("valkey store misconfigured")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{opts.Address},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}

	return &ValkeyStore{client: client, key: opts.Key, logger: logger}, nil
}

// Load reads every member of the set, or returns an empty log on failure.
func (s *ValkeyStore) Load(ctx context.Context) *identity.Log {
	members, err := s.client.Do(ctx, s.client.B().Smembers().Key(s.key).Build()).AsStrSlice()
	if err != nil {
		s.logger.Warn("identity set unreadable, starting empty", "key", s.key, "error", err)
		return identity.NewLog()
	}
	return identity.FromStrings(members)
}

// Save builds the new set under a temporary key and renames it over the
// live key, so the live set is swapped in one step.
func (s *ValkeyStore) Save(ctx context.Context, log *identity.Log) error {
	values := log.Strings()
	if len(values) == 0 {
		if err := s.client.Do(ctx, s.client.B().Del().Key(s.key).Build()).Error(); err != nil {
			return fmt.Errorf("clear identity set: %w", err)
		}
		return nil
	}

	tmpKey := s.key + ":tmp"
	cmds := valkey.Commands{
		s.client.B().Del().Key(tmpKey).Build(),
		s.client.B().Sadd().Key(tmpKey).Member(values...).Build(),
		s.client.B().Rename().Key(tmpKey).Newkey(s.key).Build(),
	}
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("replace identity set: %w", err)
		}
	}
	return nil
}

// Close shuts the client down.
func (s *ValkeyStore) Close() {
	s.client.Close()
}
