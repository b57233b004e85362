// Package whatsmeow adapts go.mau.fi/whatsmeow sessions to the provider
// interface. All sessions share one sqlstore credential container; each
// instance is bound to one device inside it, with the binding persisted
// under the auth directory so restarts reattach instead of re-pairing.
package whatsmeow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
)

const deviceMapFile = "devices.json"

// Config configures the whatsmeow session factory.
type Config struct {
	// AuthDir holds the credential database and the instance-to-device map.
	AuthDir string
	// ClientLogLevel is the whatsmeow client log level (DEBUG, INFO, WARN,
	// ERROR).
	ClientLogLevel string
}

// Factory creates whatsmeow-backed sessions.
type Factory struct {
	cfg       Config
	container *sqlstore.Container
	logger    *zap.Logger
	waLogger  waLog.Logger

	mu      sync.Mutex
	devices map[domain.InstanceID]string // instance id -> device JID
}

// NewFactory opens the shared credential container under cfg.AuthDir,
// creating the directory if needed.
func NewFactory(ctx context.Context, cfg Config, logger *zap.Logger) (*Factory, error) {
	if cfg.AuthDir == "" {
		cfg.AuthDir = "auth"
	}
	if err := os.MkdirAll(cfg.AuthDir, 0o755); err != nil {
		return nil, fmt.Errorf("create auth directory: %w", err)
	}

	level := cfg.ClientLogLevel
	if level == "" {
		level = "WARN"
	}
	dbLog := waLog.Stdout("whatsmeow-db", level, false)

	dbPath := filepath.Join(cfg.AuthDir, "sessions.db")
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath), dbLog)
	if err != nil {
		return nil, fmt.Errorf("open credential container: %w", err)
	}

	f := &Factory{
		cfg:       cfg,
		container: container,
		logger:    logger.Named("whatsmeow"),
		waLogger:  waLog.Stdout("whatsmeow", level, false),
		devices:   make(map[domain.InstanceID]string),
	}
	if err := f.loadDeviceMap(); err != nil {
		f.logger.Warn("Failed to load device map, starting empty", zap.Error(err))
	}
	return f, nil
}

func (f *Factory) deviceMapPath() string {
	return filepath.Join(f.cfg.AuthDir, deviceMapFile)
}

func (f *Factory) loadDeviceMap() error {
	data, err := os.ReadFile(f.deviceMapPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var m map[domain.InstanceID]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	f.mu.Lock()
	f.devices = m
	if f.devices == nil {
		f.devices = make(map[domain.InstanceID]string)
	}
	f.mu.Unlock()
	return nil
}

// saveDeviceMap writes through a temp file so a crash mid-write cannot
// truncate the map.
func (f *Factory) saveDeviceMap() error {
	f.mu.Lock()
	data, err := json.MarshalIndent(f.devices, "", "  ")
	f.mu.Unlock()
	if err != nil {
		return err
	}
	tmp := f.deviceMapPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.deviceMapPath())
}

func (f *Factory) bindDevice(id domain.InstanceID, jid types.JID) {
	f.mu.Lock()
	f.devices[id] = jid.String()
	f.mu.Unlock()
	if err := f.saveDeviceMap(); err != nil {
		f.logger.Warn("Failed to persist device map", zap.Error(err))
	}
}

// NewSession creates a session for an instance, reattaching to its stored
// device when one is bound.
func (f *Factory) NewSession(ctx context.Context, id domain.InstanceID) (provider.Session, error) {
	f.mu.Lock()
	jidStr, bound := f.devices[id]
	f.mu.Unlock()

	device := f.container.NewDevice()
	if bound {
		jid, err := types.ParseJID(jidStr)
		if err == nil {
			if existing, derr := f.container.GetDevice(ctx, jid); derr == nil && existing != nil {
				device = existing
			} else if derr != nil {
				f.logger.Warn("Bound device not loadable, pairing fresh",
					zap.String("instance_id", id.String()), zap.Error(derr))
			}
		}
	}
	if device == nil {
		return nil, fmt.Errorf("credential container returned no device")
	}

	client := whatsmeow.NewClient(device, f.waLogger)
	return newSession(id, client, f), nil
}

// DeleteCredentials removes the instance's device from the credential
// container and drops its binding.
func (f *Factory) DeleteCredentials(ctx context.Context, id domain.InstanceID) error {
	f.mu.Lock()
	jidStr, bound := f.devices[id]
	delete(f.devices, id)
	f.mu.Unlock()

	if err := f.saveDeviceMap(); err != nil {
		f.logger.Warn("Failed to persist device map", zap.Error(err))
	}
	if !bound {
		return nil
	}

	jid, err := types.ParseJID(jidStr)
	if err != nil {
		return nil
	}
	device, err := f.container.GetDevice(ctx, jid)
	if err != nil || device == nil {
		return nil
	}
	return device.Delete(ctx)
}

// Close closes the credential container.
func (f *Factory) Close() error {
	return f.container.Close()
}
