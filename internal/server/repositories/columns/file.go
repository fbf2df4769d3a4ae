package columns

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/taurisky/taurisky/internal/filex"
	"github.com/taurisky/taurisky/internal/models"
)

// FileName is the layout file inside the data directory.
const FileName = "columns.json"

// FileRepository keeps the layout as plain JSON, replaced atomically on save.
type FileRepository struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileRepository(dataDir string) *FileRepository {
	return &FileRepository{
		path: filepath.Join(dataDir, FileName),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *FileRepository) Load(ctx context.Context) ([]models.DeckColumnConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := filex.ReadFileIfExists(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns file: %w", err)
	}
	if b == nil {
		return []models.DeckColumnConfig{}, nil
	}

	var cols []models.DeckColumnConfig
	if err := json.Unmarshal(b, &cols); err != nil {
		return nil, fmt.Errorf("failed to parse columns JSON: %w", err)
	}
	if cols == nil {
		cols = []models.DeckColumnConfig{}
	}
	sortByPosition(cols)
	return cols, nil
}

func (r *FileRepository) Save(ctx context.Context, cols []models.DeckColumnConfig) error {
	stamped, err := prepare(cols, r.now())
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(stamped, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize columns: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return filex.WriteFileAtomic(r.path, b, 0o600)
}
