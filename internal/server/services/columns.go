package services

import (
	"context"
	"fmt"

	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/models"
	"github.com/taurisky/taurisky/internal/server/repositories/repomanager"
)

// Backup stores a copy of the deck layout off the machine.
type Backup interface {
	SaveColumns(ctx context.Context, cols []models.DeckColumnConfig) error
	LoadColumns(ctx context.Context) ([]models.DeckColumnConfig, error)
}

// ColumnService persists the deck layout.
type ColumnService struct {
	repomanager repomanager.RepositoryManager
	backup      Backup
	logger      logging.Logger
}

func NewColumnService(m repomanager.RepositoryManager, backup Backup, logger logging.Logger) *ColumnService {
	return &ColumnService{repomanager: m, backup: backup, logger: logger.With("module", "columns")}
}

// Register binds the column commands on r.
func (s *ColumnService) Register(r *bridge.Router) {
	r.Handle(bridge.CmdGetColumns, bridge.NoArgs(s.GetColumns))
	r.Handle(bridge.CmdSaveColumns, bridge.Typed(s.SaveColumns))
	r.Handle(bridge.CmdBackupColumns, bridge.Action(s.BackupColumns))
	r.Handle(bridge.CmdRestoreColumns, bridge.NoArgs(s.RestoreColumns))
}

func (s *ColumnService) GetColumns(ctx context.Context) ([]models.DeckColumnConfig, error) {
	return s.repomanager.Columns().Load(ctx)
}

// SaveColumns replaces the stored layout and returns it as stored, with the
// save timestamps applied.
func (s *ColumnService) SaveColumns(ctx context.Context, args bridge.SaveColumnsArgs) ([]models.DeckColumnConfig, error) {
	if err := s.repomanager.Columns().Save(ctx, args.Columns); err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "columns saved", "count", len(args.Columns))
	return s.repomanager.Columns().Load(ctx)
}

// BackupColumns uploads the stored layout.
func (s *ColumnService) BackupColumns(ctx context.Context) error {
	cols, err := s.repomanager.Columns().Load(ctx)
	if err != nil {
		return err
	}
	if err := s.backup.SaveColumns(ctx, cols); err != nil {
		return err
	}
	s.logger.Info(ctx, "columns backed up", "count", len(cols))
	return nil
}

// RestoreColumns replaces the stored layout with the backup and returns it.
func (s *ColumnService) RestoreColumns(ctx context.Context) ([]models.DeckColumnConfig, error) {
	cols, err := s.backup.LoadColumns(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Columns().Save(ctx, cols); err != nil {
		return nil, fmt.Errorf("failed to apply backup: %w", err)
	}
	s.logger.Info(ctx, "columns restored", "count", len(cols))
	return s.repomanager.Columns().Load(ctx)
}
