package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/koto/server/dao"
	"github.com/google/uuid"
)

type ScriptsDB struct {
	db *sql.DB
}

func (repo *ScriptsDB) init() {
	repo.db.Exec(`CREATE TABLE IF NOT EXISTS scripts (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		ast_cache TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`)
}

func (repo *ScriptsDB) Create(ctx context.Context, s dao.Script) (dao.Script, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Script{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO scripts (id, user_id, name, source, ast_cache, created, modified) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(s.UserID),
		s.Name,
		s.Source,
		convertToDB_ByteSlice(s.ASTCache),
		convertToDB_Time(now),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Script{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *ScriptsDB) scanRow(row interface {
	Scan(dest ...any) error
}) (dao.Script, error) {
	var s dao.Script
	var id, userID, astCache string
	var created, modified int64

	err := row.Scan(&id, &userID, &s.Name, &s.Source, &astCache, &created, &modified)
	if err != nil {
		return s, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &s.ID); err != nil {
		return s, err
	}
	if err := convertFromDB_UUID(userID, &s.UserID); err != nil {
		return s, err
	}
	if err := convertFromDB_ByteSlice(astCache, &s.ASTCache); err != nil {
		return s, err
	}
	if err := convertFromDB_Time(created, &s.Created); err != nil {
		return s, err
	}
	if err := convertFromDB_Time(modified, &s.Modified); err != nil {
		return s, err
	}

	return s, nil
}

func (repo *ScriptsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Script, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, source, ast_cache, created, modified FROM scripts WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	return repo.scanRow(row)
}

func (repo *ScriptsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Script, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, user_id, name, source, ast_cache, created, modified FROM scripts WHERE user_id = ?;`,
		convertToDB_UUID(userID),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Script
	for rows.Next() {
		s, err := repo.scanRow(rows)
		if err != nil {
			return all, err
		}
		all = append(all, s)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}
	if len(all) < 1 {
		return nil, dao.ErrNotFound
	}

	return all, nil
}

func (repo *ScriptsDB) GetAll(ctx context.Context) ([]dao.Script, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, name, source, ast_cache, created, modified FROM scripts;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Script
	for rows.Next() {
		s, err := repo.scanRow(rows)
		if err != nil {
			return all, err
		}
		all = append(all, s)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *ScriptsDB) Update(ctx context.Context, id uuid.UUID, s dao.Script) (dao.Script, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE scripts SET id=?, user_id=?, name=?, source=?, ast_cache=?, modified=? WHERE id=?;`,
		convertToDB_UUID(s.ID),
		convertToDB_UUID(s.UserID),
		s.Name,
		s.Source,
		convertToDB_ByteSlice(s.ASTCache),
		convertToDB_Time(time.Now()),
		convertToDB_UUID(id),
	)
	if err != nil {
		return dao.Script{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Script{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Script{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, s.ID)
}

func (repo *ScriptsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Script, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = ?`, convertToDB_UUID(id))
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *ScriptsDB) Close() error {
	return nil
}
