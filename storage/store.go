// Package storage persists tools, conversations and the execution mirror in
// a local SQLite database.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tooldeck/model"
)

// Store wraps the SQLite database holding all local state.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "tooldeck.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tools (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		provider TEXT,
		model TEXT,
		prompt_template TEXT,
		parameters TEXT,  -- JSON
		activations TEXT, -- JSON array
		schema TEXT,      -- JSON array of parameter definitions
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tools_name ON tools(name);
	CREATE INDEX IF NOT EXISTS idx_tools_provider ON tools(provider);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		content TEXT,
		role TEXT,
		tool_id TEXT,
		timestamp DATETIME NOT NULL,
		metadata TEXT, -- JSON
		FOREIGN KEY(conversation_id) REFERENCES conversations(id)
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);

	CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL, -- 0 is newest
		tool_id TEXT,
		tool_name TEXT,
		input TEXT,
		output TEXT,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		status TEXT NOT NULL,
		metrics TEXT -- JSON
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveTool inserts or replaces a tool definition.
func (s *Store) SaveTool(tool model.Tool) error {
	parameters, err := json.Marshal(tool.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	activations, err := json.Marshal(tool.Activations)
	if err != nil {
		return fmt.Errorf("failed to encode activations: %w", err)
	}
	schema, err := json.Marshal(tool.Schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	now := time.Now()
	if tool.CreatedAt.IsZero() {
		tool.CreatedAt = now
	}
	tool.UpdatedAt = now

	query := `
	INSERT OR REPLACE INTO tools
	(id, name, description, provider, model, prompt_template, parameters, activations, schema, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		tool.ID,
		tool.Name,
		tool.Description,
		tool.Provider,
		tool.Model,
		tool.PromptTemplate,
		string(parameters),
		string(activations),
		string(schema),
		tool.CreatedAt,
		tool.UpdatedAt,
	)
	return err
}

// SeedTools inserts configured tools that the store doesn't know yet.
// Existing rows win, so edits made through the app survive restarts.
func (s *Store) SeedTools(tools []model.Tool) error {
	for _, tool := range tools {
		if tool.ID == "" {
			continue
		}
		existing, err := s.GetTool(tool.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := s.SaveTool(tool); err != nil {
			return fmt.Errorf("failed to seed tool %s: %w", tool.ID, err)
		}
	}
	return nil
}

// GetTool loads one tool by id; returns nil when absent.
func (s *Store) GetTool(id string) (*model.Tool, error) {
	query := `
	SELECT id, name, description, provider, model, prompt_template, parameters, activations, schema, created_at, updated_at
	FROM tools WHERE id = ?
	`
	tool, err := scanTool(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tool, nil
}

// ListTools returns all tools, most recently created first.
func (s *Store) ListTools() ([]model.Tool, error) {
	query := `
	SELECT id, name, description, provider, model, prompt_template, parameters, activations, schema, created_at, updated_at
	FROM tools ORDER BY created_at DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []model.Tool
	for rows.Next() {
		tool, err := scanTool(rows)
		if err != nil {
			continue
		}
		tools = append(tools, *tool)
	}
	return tools, rows.Err()
}

// DeleteTool removes a tool definition.
func (s *Store) DeleteTool(id string) error {
	_, err := s.db.Exec(`DELETE FROM tools WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTool(row rowScanner) (*model.Tool, error) {
	var (
		tool        model.Tool
		parameters  string
		activations string
		schema      string
	)
	err := row.Scan(
		&tool.ID,
		&tool.Name,
		&tool.Description,
		&tool.Provider,
		&tool.Model,
		&tool.PromptTemplate,
		&parameters,
		&activations,
		&schema,
		&tool.CreatedAt,
		&tool.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parameters != "" {
		_ = json.Unmarshal([]byte(parameters), &tool.Parameters)
	}
	if activations != "" {
		_ = json.Unmarshal([]byte(activations), &tool.Activations)
	}
	if schema != "" {
		_ = json.Unmarshal([]byte(schema), &tool.Schema)
	}
	return &tool, nil
}
