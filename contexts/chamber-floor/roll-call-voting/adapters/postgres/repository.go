package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "plenary/contexts/chamber-floor/roll-call-voting/application"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	activeSlot = "active"
)

// Repository implements every port on one gorm handle. Inside WithinTx the
// handle is the transaction.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the tables and the unique indexes that back the
// single-active-session and single-open-initiative rules.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&legislatorModel{},
		&sessionModel{},
		&initiativeModel{},
		&rollCallModel{},
		&attendanceModel{},
		&voteModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("plenary_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &Repository{db: db, logger: r.logger})
	})
}

func (r *Repository) View(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return fn(ctx, r)
}

func (r *Repository) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	return r.findSession(r.db.WithContext(ctx), sessionID)
}

func (r *Repository) LockSession(ctx context.Context, sessionID string) (entities.Session, error) {
	return r.findSession(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), sessionID)
}

func (r *Repository) findSession(db *gorm.DB, sessionID string) (entities.Session, error) {
	var row sessionModel
	err := db.Where("session_id = ?", strings.TrimSpace(sessionID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Session{}, domainerrors.ErrSessionNotFound
		}
		return entities.Session{}, r.logError("plenary_repo_get_session_failed", err, "session_id", strings.TrimSpace(sessionID))
	}
	return row.toEntity(), nil
}

func (r *Repository) GetActiveSession(ctx context.Context) (entities.Session, bool, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).Where("active_slot IS NOT NULL").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Session{}, false, nil
		}
		return entities.Session{}, false, r.logError("plenary_repo_get_active_session_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListSessions(ctx context.Context) ([]entities.Session, error) {
	var rows []sessionModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("code ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("plenary_repo_list_sessions_failed", err)
	}
	items := make([]entities.Session, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateSession(ctx context.Context, session entities.Session) error {
	row := sessionModelFromEntity(session)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicate.With("code", row.Code)
		}
		return r.logError("plenary_repo_create_session_failed", err, "session_id", row.SessionID)
	}
	return nil
}

func (r *Repository) SaveSession(ctx context.Context, session entities.Session) error {
	row := sessionModelFromEntity(session)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicate.With("session_id", row.SessionID)
		}
		return r.logError("plenary_repo_save_session_failed", err, "session_id", row.SessionID)
	}
	return nil
}

func (r *Repository) GetInitiative(ctx context.Context, initiativeID string) (entities.Initiative, error) {
	return r.findInitiative(r.db.WithContext(ctx), initiativeID)
}

func (r *Repository) LockInitiative(ctx context.Context, initiativeID string) (entities.Initiative, error) {
	return r.findInitiative(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), initiativeID)
}

func (r *Repository) findInitiative(db *gorm.DB, initiativeID string) (entities.Initiative, error) {
	var row initiativeModel
	err := db.Where("initiative_id = ?", strings.TrimSpace(initiativeID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Initiative{}, domainerrors.ErrInitiativeNotFound
		}
		return entities.Initiative{}, r.logError("plenary_repo_get_initiative_failed", err,
			"initiative_id", strings.TrimSpace(initiativeID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListInitiativesBySession(ctx context.Context, sessionID string) ([]entities.Initiative, error) {
	var rows []initiativeModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Order("number ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("plenary_repo_list_initiatives_failed", err, "session_id", strings.TrimSpace(sessionID))
	}
	items := make([]entities.Initiative, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateInitiative(ctx context.Context, initiative entities.Initiative) error {
	row := initiativeModelFromEntity(initiative)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicate.With("initiative_id", row.InitiativeID)
		}
		return r.logError("plenary_repo_create_initiative_failed", err, "initiative_id", row.InitiativeID)
	}
	return nil
}

func (r *Repository) SaveInitiative(ctx context.Context, initiative entities.Initiative) error {
	row := initiativeModelFromEntity(initiative)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicate.With("initiative_id", row.InitiativeID)
		}
		return r.logError("plenary_repo_save_initiative_failed", err, "initiative_id", row.InitiativeID)
	}
	return nil
}

func (r *Repository) GetRollCall(ctx context.Context, rollCallID string) (entities.RollCall, error) {
	var row rollCallModel
	err := r.db.WithContext(ctx).Where("roll_call_id = ?", strings.TrimSpace(rollCallID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RollCall{}, domainerrors.ErrRollCallNotFound
		}
		return entities.RollCall{}, r.logError("plenary_repo_get_roll_call_failed", err,
			"roll_call_id", strings.TrimSpace(rollCallID),
		)
	}
	return row.toEntity(), nil
}

// GetCurrentRollCall returns the most recent roll call of the session,
// preferring the non-finalized one.
func (r *Repository) GetCurrentRollCall(ctx context.Context, sessionID string) (entities.RollCall, bool, error) {
	var row rollCallModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Order("finalized ASC").
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RollCall{}, false, nil
		}
		return entities.RollCall{}, false, r.logError("plenary_repo_get_current_roll_call_failed", err,
			"session_id", strings.TrimSpace(sessionID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CreateRollCall(ctx context.Context, rollCall entities.RollCall) error {
	row := rollCallModelFromEntity(rollCall)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicate.With("session_id", row.SessionID)
		}
		return r.logError("plenary_repo_create_roll_call_failed", err, "roll_call_id", row.RollCallID)
	}
	return nil
}

func (r *Repository) SaveRollCall(ctx context.Context, rollCall entities.RollCall) error {
	row := rollCallModelFromEntity(rollCall)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return r.logError("plenary_repo_save_roll_call_failed", err, "roll_call_id", row.RollCallID)
	}
	return nil
}

func (r *Repository) UpsertAttendance(ctx context.Context, attendance entities.Attendance) error {
	row := attendanceModel{
		RollCallID:   strings.TrimSpace(attendance.RollCallID),
		LegislatorID: strings.TrimSpace(attendance.LegislatorID),
		State:        string(attendance.State),
		MarkedBy:     strings.TrimSpace(attendance.MarkedBy),
		UpdatedAt:    attendance.UpdatedAt.UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "roll_call_id"}, {Name: "legislator_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"state":      row.State,
			"marked_by":  row.MarkedBy,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("plenary_repo_upsert_attendance_failed", err,
			"roll_call_id", row.RollCallID,
			"legislator_id", row.LegislatorID,
		)
	}
	return nil
}

func (r *Repository) GetAttendance(ctx context.Context, rollCallID string, legislatorID string) (entities.Attendance, bool, error) {
	var row attendanceModel
	err := r.db.WithContext(ctx).
		Where("roll_call_id = ?", strings.TrimSpace(rollCallID)).
		Where("legislator_id = ?", strings.TrimSpace(legislatorID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Attendance{}, false, nil
		}
		return entities.Attendance{}, false, r.logError("plenary_repo_get_attendance_failed", err,
			"roll_call_id", strings.TrimSpace(rollCallID),
			"legislator_id", strings.TrimSpace(legislatorID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListAttendance(ctx context.Context, rollCallID string) ([]entities.Attendance, error) {
	var rows []attendanceModel
	if err := r.db.WithContext(ctx).
		Where("roll_call_id = ?", strings.TrimSpace(rollCallID)).
		Order("legislator_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("plenary_repo_list_attendance_failed", err, "roll_call_id", strings.TrimSpace(rollCallID))
	}
	items := make([]entities.Attendance, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertVote(ctx context.Context, vote entities.Vote) error {
	row := voteModel{
		InitiativeID: strings.TrimSpace(vote.InitiativeID),
		LegislatorID: strings.TrimSpace(vote.LegislatorID),
		Choice:       string(vote.Choice),
		CastAt:       vote.CastAt.UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "initiative_id"}, {Name: "legislator_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"choice":  row.Choice,
			"cast_at": row.CastAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("plenary_repo_upsert_vote_failed", err,
			"initiative_id", row.InitiativeID,
			"legislator_id", row.LegislatorID,
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, initiativeID string, legislatorID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("initiative_id = ?", strings.TrimSpace(initiativeID)).
		Where("legislator_id = ?", strings.TrimSpace(legislatorID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("plenary_repo_get_vote_failed", err,
			"initiative_id", strings.TrimSpace(initiativeID),
			"legislator_id", strings.TrimSpace(legislatorID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesByInitiative(ctx context.Context, initiativeID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("initiative_id = ?", strings.TrimSpace(initiativeID)).
		Order("legislator_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("plenary_repo_list_votes_failed", err, "initiative_id", strings.TrimSpace(initiativeID))
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetLegislator(ctx context.Context, legislatorID string) (entities.Legislator, error) {
	var row legislatorModel
	err := r.db.WithContext(ctx).Where("legislator_id = ?", strings.TrimSpace(legislatorID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Legislator{}, domainerrors.ErrLegislatorNotFound
		}
		return entities.Legislator{}, r.logError("plenary_repo_get_legislator_failed", err,
			"legislator_id", strings.TrimSpace(legislatorID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListLegislators(ctx context.Context, activeOnly bool) ([]entities.Legislator, error) {
	query := r.db.WithContext(ctx).Model(&legislatorModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []legislatorModel
	if err := query.Order("seat_order ASC").Order("legislator_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("plenary_repo_list_legislators_failed", err)
	}
	items := make([]entities.Legislator, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountActiveLegislators(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&legislatorModel{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return 0, r.logError("plenary_repo_count_active_legislators_failed", err)
	}
	return int(count), nil
}

func (r *Repository) SaveLegislator(ctx context.Context, legislator entities.Legislator) error {
	row := legislatorModel{
		LegislatorID: strings.TrimSpace(legislator.LegislatorID),
		DisplayName:  strings.TrimSpace(legislator.DisplayName),
		Party:        strings.TrimSpace(legislator.Party),
		SeatOrder:    legislator.SeatOrder,
		Active:       legislator.Active,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "legislator_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"display_name": row.DisplayName,
			"party":        row.Party,
			"seat_order":   row.SeatOrder,
			"active":       row.Active,
		}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("plenary_repo_save_legislator_failed", err, "legislator_id", row.LegislatorID)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("plenary_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicate.With("outbox_id", row.OutboxID)
		}
		return r.logError("plenary_repo_append_outbox_insert_failed", err, "outbox_id", row.OutboxID)
	}
	return nil
}

// ListPendingOutbox returns unpublished rows in insertion order.
func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("plenary_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("plenary_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOutboxNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", application.Module,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("plenary repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.Store = (*Repository)(nil)
var _ ports.Tx = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
