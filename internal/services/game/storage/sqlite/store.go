// Package sqlite provides a SQLite-backed game storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/valithor/inabsentia/internal/platform/storage/sqlitemigrate"
	"github.com/valithor/inabsentia/internal/services/game/domain/contract"
	"github.com/valithor/inabsentia/internal/services/game/storage"
	"github.com/valithor/inabsentia/internal/services/game/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists game state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullMillis maps optional domain times to sql.NullInt64 for nullable columns.
func toNullMillis(value time.Time) sql.NullInt64 {
	if value.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return fromMillis(value.Int64)
}

// Open opens a SQLite game store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle. Close is nil-safe so callers can defer it
// in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutContract writes the full contract aggregate inside one transaction.
// The archived_at marker is managed separately and survives rewrites.
func (s *Store) PutContract(ctx context.Context, c contract.Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("contract id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put contract: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO contracts (id, type, status, pause_reason, last_contribution, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  type = excluded.type,
		  status = excluded.status,
		  pause_reason = excluded.pause_reason,
		  last_contribution = excluded.last_contribution,
		  updated_at = excluded.updated_at`,
		c.ID,
		string(c.Type),
		string(c.Status),
		c.PauseReason,
		toNullMillis(c.LastContribution),
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
	); err != nil {
		return fmt.Errorf("upsert contract: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM contract_contributors WHERE contract_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear contributors: %w", err)
	}
	for i, entry := range c.Contributors {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contract_contributors (contract_id, character_id, position, effort, expertise, work_units, approved)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, entry.CharacterID, i, entry.Effort, entry.Expertise, entry.WorkUnits, boolToInt(entry.Approved),
		); err != nil {
			return fmt.Errorf("insert contributor: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM contract_materials WHERE contract_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear materials: %w", err)
	}
	for _, itemType := range c.MaterialTypes() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contract_materials (contract_id, item_type, quantity) VALUES (?, ?, ?)`,
			c.ID, itemType, c.ReservedMaterials[itemType],
		); err != nil {
			return fmt.Errorf("insert material: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM contract_trials WHERE contract_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear trials: %w", err)
	}
	for _, trial := range c.Trials {
		params, err := json.Marshal(trial.Params)
		if err != nil {
			return fmt.Errorf("encode trial params: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contract_trials (contract_id, character_id, params, observation, submitted_at)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, trial.CharacterID, string(params), trial.Observation, toMillis(trial.SubmittedAt),
		); err != nil {
			return fmt.Errorf("insert trial: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put contract: %w", err)
	}
	return nil
}

// GetContract fetches a contract aggregate by ID.
func (s *Store) GetContract(ctx context.Context, id string) (contract.Contract, error) {
	if err := ctx.Err(); err != nil {
		return contract.Contract{}, err
	}
	if s == nil || s.sqlDB == nil {
		return contract.Contract{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return contract.Contract{}, fmt.Errorf("contract id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, type, status, pause_reason, last_contribution, created_at, updated_at
		FROM contracts WHERE id = ?`, id)

	c, err := scanContract(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contract.Contract{}, storage.ErrNotFound
		}
		return contract.Contract{}, fmt.Errorf("get contract: %w", err)
	}

	if err := s.loadContractChildren(ctx, &c); err != nil {
		return contract.Contract{}, err
	}
	return c, nil
}

// ListContractsByStatus returns all contracts currently in the given status.
func (s *Store) ListContractsByStatus(ctx context.Context, status contract.Status) ([]contract.Contract, error) {
	return s.listContracts(ctx, `
		SELECT id, type, status, pause_reason, last_contribution, created_at, updated_at
		FROM contracts WHERE status = ? ORDER BY created_at, id`, string(status))
}

// ListResolvedUnarchived returns resolved contracts last updated before the
// cutoff that have not been exported to the archive.
func (s *Store) ListResolvedUnarchived(ctx context.Context, cutoff time.Time) ([]contract.Contract, error) {
	return s.listContracts(ctx, `
		SELECT id, type, status, pause_reason, last_contribution, created_at, updated_at
		FROM contracts
		WHERE status = ? AND archived_at IS NULL AND updated_at < ?
		ORDER BY updated_at, id`, string(contract.StatusResolved), toMillis(cutoff))
}

// MarkContractArchived stamps a contract as exported to the archive.
func (s *Store) MarkContractArchived(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE contracts SET archived_at = ? WHERE id = ?`, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("mark contract archived: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark contract archived: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LoadStock reads the full stockpile map.
func (s *Store) LoadStock(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT item_type, quantity FROM stock`)
	if err != nil {
		return nil, fmt.Errorf("load stock: %w", err)
	}
	defer rows.Close()

	stock := map[string]int{}
	for rows.Next() {
		var itemType string
		var quantity int
		if err := rows.Scan(&itemType, &quantity); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		stock[itemType] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock rows: %w", err)
	}
	return stock, nil
}

// ApplyStockDelta adjusts one item type by a signed delta.
func (s *Store) ApplyStockDelta(ctx context.Context, itemType string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(itemType) == "" {
		return fmt.Errorf("item type is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO stock (item_type, quantity) VALUES (?, MAX(?, 0))
		ON CONFLICT (item_type) DO UPDATE SET quantity = quantity + ?`,
		itemType, delta, delta,
	); err != nil {
		return fmt.Errorf("apply stock delta: %w", err)
	}
	return nil
}

// SetStock overwrites one item type's quantity.
func (s *Store) SetStock(ctx context.Context, itemType string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(itemType) == "" {
		return fmt.Errorf("item type is required")
	}
	if quantity < 0 {
		return fmt.Errorf("quantity must be non-negative")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO stock (item_type, quantity) VALUES (?, ?)
		ON CONFLICT (item_type) DO UPDATE SET quantity = excluded.quantity`,
		itemType, quantity,
	); err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (contract.Contract, error) {
	var (
		c                contract.Contract
		kind             string
		status           string
		lastContribution sql.NullInt64
		createdAt        int64
		updatedAt        int64
	)
	if err := row.Scan(&c.ID, &kind, &status, &c.PauseReason, &lastContribution, &createdAt, &updatedAt); err != nil {
		return contract.Contract{}, err
	}

	parsedType, ok := contract.ParseType(kind)
	if !ok {
		return contract.Contract{}, fmt.Errorf("stored contract %s has unknown type %q", c.ID, kind)
	}
	parsedStatus, ok := contract.ParseStatus(status)
	if !ok {
		return contract.Contract{}, fmt.Errorf("stored contract %s has unknown status %q", c.ID, status)
	}
	c.Type = parsedType
	c.Status = parsedStatus
	c.LastContribution = fromNullMillis(lastContribution)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	c.ReservedMaterials = map[string]int{}
	return c, nil
}

func (s *Store) listContracts(ctx context.Context, query string, args ...any) ([]contract.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []contract.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract row: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contract rows: %w", err)
	}

	for i := range contracts {
		if err := s.loadContractChildren(ctx, &contracts[i]); err != nil {
			return nil, err
		}
	}
	return contracts, nil
}

func (s *Store) loadContractChildren(ctx context.Context, c *contract.Contract) error {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT character_id, effort, expertise, work_units, approved
		FROM contract_contributors WHERE contract_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("load contributors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entry contract.Contributor
		var approved int
		if err := rows.Scan(&entry.CharacterID, &entry.Effort, &entry.Expertise, &entry.WorkUnits, &approved); err != nil {
			return fmt.Errorf("scan contributor row: %w", err)
		}
		entry.Approved = approved != 0
		c.Contributors = append(c.Contributors, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate contributor rows: %w", err)
	}

	materialRows, err := s.sqlDB.QueryContext(ctx, `
		SELECT item_type, quantity FROM contract_materials WHERE contract_id = ?`, c.ID)
	if err != nil {
		return fmt.Errorf("load materials: %w", err)
	}
	defer materialRows.Close()
	for materialRows.Next() {
		var itemType string
		var quantity int
		if err := materialRows.Scan(&itemType, &quantity); err != nil {
			return fmt.Errorf("scan material row: %w", err)
		}
		c.ReservedMaterials[itemType] = quantity
	}
	if err := materialRows.Err(); err != nil {
		return fmt.Errorf("iterate material rows: %w", err)
	}

	trialRows, err := s.sqlDB.QueryContext(ctx, `
		SELECT character_id, params, observation, submitted_at
		FROM contract_trials WHERE contract_id = ? ORDER BY id`, c.ID)
	if err != nil {
		return fmt.Errorf("load trials: %w", err)
	}
	defer trialRows.Close()
	for trialRows.Next() {
		var trial contract.Trial
		var params string
		var submittedAt int64
		if err := trialRows.Scan(&trial.CharacterID, &params, &trial.Observation, &submittedAt); err != nil {
			return fmt.Errorf("scan trial row: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &trial.Params); err != nil {
			return fmt.Errorf("decode trial params: %w", err)
		}
		trial.SubmittedAt = fromMillis(submittedAt)
		c.Trials = append(c.Trials, trial)
	}
	if err := trialRows.Err(); err != nil {
		return fmt.Errorf("iterate trial rows: %w", err)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
