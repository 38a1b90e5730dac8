package storage

import (
	"database/sql"
	"fmt"
	"time"

	"log/slog"

	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/infrastructure/log"
)

// artifactRepository 制品 SQLite 仓储实现
// Find 的子串匹配让改写过的图表请求也能命中缓存
type artifactRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewArtifactRepository 创建制品仓储实例
func NewArtifactRepository(db *sql.DB) chat.ArtifactRepository {
	if err := initArtifactTable(db); err != nil {
		fmt.Printf("failed to init artifact table: %v\n", err)
	}
	return &artifactRepository{
		db:     db,
		logger: log.NewModuleLogger("storage", "artifact_repository"),
	}
}

// initArtifactTable 初始化制品表
func initArtifactTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		request_query TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create artifacts table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_artifacts_conversation ON artifacts(conversation_id, created_at);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create artifact indexes: %w", err)
	}

	return nil
}

// Save 保存制品
func (r *artifactRepository) Save(conversationID int64, requestQuery, kind, content string) (int64, error) {
	result, err := r.db.Exec(
		`INSERT INTO artifacts (conversation_id, request_query, kind, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		conversationID, requestQuery, kind, content, time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save artifact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get artifact id: %w", err)
	}

	return id, nil
}

// Find 模糊缓存查找：存储的 request_query 包含查询串即命中，取最新一条
func (r *artifactRepository) Find(conversationID int64, query string) (*chat.Artifact, error) {
	row := r.db.QueryRow(`
		SELECT id, conversation_id, request_query, kind, content, created_at
		FROM artifacts
		WHERE conversation_id = ? AND request_query LIKE ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		conversationID, "%"+query+"%")

	return scanArtifact(row)
}

// FindByID 按 ID 精确查找
func (r *artifactRepository) FindByID(id int64) (*chat.Artifact, error) {
	row := r.db.QueryRow(`
		SELECT id, conversation_id, request_query, kind, content, created_at
		FROM artifacts
		WHERE id = ?`,
		id)

	return scanArtifact(row)
}

// scanArtifact 扫描单行制品，无结果返回 (nil, nil)
func scanArtifact(row *sql.Row) (*chat.Artifact, error) {
	var artifact chat.Artifact
	var createdAt int64

	err := row.Scan(
		&artifact.ID,
		&artifact.ConversationID,
		&artifact.RequestQuery,
		&artifact.Kind,
		&artifact.Content,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query artifact: %w", err)
	}

	artifact.CreatedAt = time.UnixMilli(createdAt)
	return &artifact, nil
}

// 编译时检查接口实现
var _ chat.ArtifactRepository = (*artifactRepository)(nil)
