package repomanager

import (
	"github.com/taurisky/taurisky/internal/cryptox"
	"github.com/taurisky/taurisky/internal/server/repositories/accounts"
	"github.com/taurisky/taurisky/internal/server/repositories/columns"
	"github.com/taurisky/taurisky/internal/server/repositories/filestore"
	"github.com/taurisky/taurisky/internal/server/repositories/tokens"
)

// FileManager keeps accounts and tokens in storage.enc and the layout in
// columns.json.
type FileManager struct {
	store   *filestore.Store
	columns *columns.FileRepository
}

func NewFileManager(dir string, sealer *cryptox.Sealer) *FileManager {
	return &FileManager{
		store:   filestore.New(dir, sealer),
		columns: columns.NewFileRepository(dir),
	}
}

func (m *FileManager) Accounts() accounts.Repository { return m.store.Accounts() }
func (m *FileManager) Tokens() tokens.Repository     { return m.store.Tokens() }
func (m *FileManager) Columns() columns.Repository   { return m.columns }
func (m *FileManager) Close() error                  { return nil }
