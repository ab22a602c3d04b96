package database

import (
	"context"
	"fmt"
	"strings"

	"tourguide/internal/domain"
	"tourguide/internal/models"
)

const conversationSelect = `SELECT c.id, c.tourist_id, c.guide_id, c.subject, c.last_message_at, c.created_at,
        TRIM(tu.first_name || ' ' || tu.last_name) AS tourist_name,
        TRIM(gu.first_name || ' ' || gu.last_name) AS guide_name
    FROM conversations c
    JOIN tourist_profiles tp ON tp.id = c.tourist_id
    JOIN users tu ON tu.id = tp.user_id
    JOIN guide_profiles gp ON gp.id = c.guide_id
    JOIN users gu ON gu.id = gp.user_id`

// GetOrCreateConversation returns the conversation of the pair, creating it when absent.
// The boolean reports whether a row was created.
func (db *DB) GetOrCreateConversation(ctx context.Context, touristID, guideID int64, subject string) (*models.Conversation, bool, error) {
	existing, err := db.findConversation(ctx, touristID, guideID)
	if err == nil {
		return existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	now := db.now()
	id, err := insert(ctx, db.DB, `INSERT INTO conversations (tourist_id, guide_id, subject, last_message_at, created_at)
        VALUES (?, ?, ?, ?, ?)`, touristID, guideID, subject, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent start.
			existing, err := db.findConversation(ctx, touristID, guideID)
			return existing, false, err
		}
		return nil, false, mapError(err, "create conversation")
	}

	c, err := db.GetConversation(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (db *DB) findConversation(ctx context.Context, touristID, guideID int64) (*models.Conversation, error) {
	var c models.Conversation
	if err := get(ctx, db.DB, &c, conversationSelect+` WHERE c.tourist_id = ? AND c.guide_id = ?`, touristID, guideID); err != nil {
		return nil, mapError(err, "find conversation")
	}
	return &c, nil
}

func (db *DB) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var c models.Conversation
	if err := get(ctx, db.DB, &c, conversationSelect+` WHERE c.id = ?`, id); err != nil {
		return nil, mapError(err, "get conversation")
	}
	return &c, nil
}

// ListConversations returns the participant's conversations, newest activity first, with
// the last message and the number of unread messages sent by the other party.
func (db *DB) ListConversations(ctx context.Context, f models.ConversationFilter, reader string) ([]*models.Conversation, error) {
	var (
		where []string
		args  []any
	)
	if f.TouristID > 0 {
		where = append(where, "c.tourist_id = ?")
		args = append(args, f.TouristID)
	}
	if f.GuideID > 0 {
		where = append(where, "c.guide_id = ?")
		args = append(args, f.GuideID)
	}
	query := conversationSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.last_message_at DESC, c.id DESC"

	var out []*models.Conversation
	if err := selectAll(ctx, db.DB, &out, query, args...); err != nil {
		return nil, mapError(err, "list conversations")
	}

	for _, c := range out {
		if err := db.decorateConversation(ctx, c, reader); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) decorateConversation(ctx context.Context, c *models.Conversation, reader string) error {
	var last models.Message
	err := get(ctx, db.DB, &last, `SELECT id, conversation_id, sender_type, content, is_read, created_at
        FROM messages WHERE conversation_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, c.ID)
	switch {
	case err == nil:
		c.LastMessage = &last
	case isNotFound(err):
	default:
		return mapError(err, "load last message")
	}

	err = get(ctx, db.DB, &c.UnreadCount, `SELECT COUNT(*) FROM messages
        WHERE conversation_id = ? AND is_read = ? AND sender_type = ?`, c.ID, false, models.OtherParty(reader))
	if err != nil {
		return mapError(err, "count unread")
	}
	return nil
}

func (db *DB) ListMessages(ctx context.Context, conversationID int64) ([]*models.Message, error) {
	var out []*models.Message
	err := selectAll(ctx, db.DB, &out, `SELECT id, conversation_id, sender_type, content, is_read, created_at
        FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, mapError(err, "list messages")
	}
	return out, nil
}

// CreateMessage stores the message and bumps the conversation's last activity.
func (db *DB) CreateMessage(ctx context.Context, m *models.Message) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := db.now()
	id, err := insert(ctx, tx, `INSERT INTO messages (conversation_id, sender_type, content, is_read, created_at)
        VALUES (?, ?, ?, ?, ?)`, m.ConversationID, m.SenderType, m.Content, false, now)
	if err != nil {
		return mapError(err, "create message")
	}
	if err := execOne(ctx, tx, `UPDATE conversations SET last_message_at = ? WHERE id = ?`, now, m.ConversationID); err != nil {
		return mapError(err, "touch conversation")
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	m.ID = id
	m.IsRead = false
	m.CreatedAt = now
	return nil
}

// MarkMessagesRead marks messages the reader received as read and returns how many changed.
func (db *DB) MarkMessagesRead(ctx context.Context, conversationID int64, reader string) (int64, error) {
	result, err := exec(ctx, db.DB, `UPDATE messages SET is_read = ?
        WHERE conversation_id = ? AND sender_type = ? AND is_read = ?`,
		true, conversationID, models.OtherParty(reader), false)
	if err != nil {
		return 0, mapError(err, "mark messages read")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

const customRequestSelect = `SELECT r.id, r.tourist_id, r.guide_id, r.title, r.description, r.preferred_date,
        r.duration_hours, r.group_size, r.budget, r.special_requirements, r.status,
        r.guide_response, r.proposed_price, r.alternative_date, r.created_at, r.updated_at,
        TRIM(tu.first_name || ' ' || tu.last_name) AS tourist_name,
        TRIM(gu.first_name || ' ' || gu.last_name) AS guide_name
    FROM custom_tour_requests r
    JOIN tourist_profiles tp ON tp.id = r.tourist_id
    JOIN users tu ON tu.id = tp.user_id
    JOIN guide_profiles gp ON gp.id = r.guide_id
    JOIN users gu ON gu.id = gp.user_id`

func (db *DB) CreateCustomRequest(ctx context.Context, r *models.CustomTourRequest) error {
	now := db.now()
	if r.Status == "" {
		r.Status = models.RequestPending
	}
	id, err := insert(ctx, db.DB, `INSERT INTO custom_tour_requests (
            tourist_id, guide_id, title, description, preferred_date, duration_hours, group_size,
            budget, special_requirements, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TouristID, r.GuideID, r.Title, r.Description, r.PreferredDate, r.DurationHours, r.GroupSize,
		r.Budget, r.SpecialRequirements, r.Status, now, now)
	if err != nil {
		return mapError(err, "create custom request")
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (db *DB) GetCustomRequest(ctx context.Context, id int64) (*models.CustomTourRequest, error) {
	var r models.CustomTourRequest
	if err := get(ctx, db.DB, &r, customRequestSelect+` WHERE r.id = ?`, id); err != nil {
		return nil, mapError(err, "get custom request")
	}
	return &r, nil
}

func (db *DB) ListCustomRequests(ctx context.Context, f models.CustomRequestFilter) ([]*models.CustomTourRequest, error) {
	var (
		where []string
		args  []any
	)
	if f.TouristID > 0 {
		where = append(where, "r.tourist_id = ?")
		args = append(args, f.TouristID)
	}
	if f.GuideID > 0 {
		where = append(where, "r.guide_id = ?")
		args = append(args, f.GuideID)
	}
	if f.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, f.Status)
	}
	query := customRequestSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"

	var out []*models.CustomTourRequest
	if err := selectAll(ctx, db.DB, &out, query, args...); err != nil {
		return nil, mapError(err, "list custom requests")
	}
	return out, nil
}

// RespondCustomRequest records the guide's answer on a pending request.
func (db *DB) RespondCustomRequest(ctx context.Context, r *models.CustomTourRequest) error {
	r.UpdatedAt = db.now()
	err := execOne(ctx, db.DB, `UPDATE custom_tour_requests
        SET status = ?, guide_response = ?, proposed_price = ?, alternative_date = ?, updated_at = ?
        WHERE id = ? AND status = ?`,
		r.Status, r.GuideResponse, r.ProposedPrice, r.AlternativeDate, r.UpdatedAt, r.ID, models.RequestPending)
	if isNotFound(err) {
		return domain.ErrInvalidTransition
	}
	return mapError(err, "respond to custom request")
}

// ExpireCustomRequests marks pending requests whose preferred date is before today as expired.
func (db *DB) ExpireCustomRequests(ctx context.Context, today models.Date) (int64, error) {
	result, err := exec(ctx, db.DB, `UPDATE custom_tour_requests SET status = ?, updated_at = ?
        WHERE status = ? AND preferred_date < ?`, models.RequestExpired, db.now(), models.RequestPending, today)
	if err != nil {
		return 0, mapError(err, "expire custom requests")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
