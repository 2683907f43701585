package community

import (
	"context"
	"errors"

	"github.com/aksaraymalaklisi/greentrail/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrForbidden    = errors.New("not the author")
	ErrEmptyPost    = errors.New("post needs text or an image")
	ErrUnknownTrack = errors.New("linked track does not exist")
)

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

// ListPosts returns the feed newest-first with comments, aggregate reaction
// buckets, and the viewer's own reaction resolved.
func (s *Service) ListPosts(ctx context.Context, viewerID string) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, u.id, COALESCE(NULLIF(u.name,''), u.username), u.avatar_url,
		       p.content, p.image_url, p.track_id, p.created_at
		FROM community_posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	var ids []string
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Author.ID, &p.Author.Name, &p.Author.Avatar,
			&p.Content, &p.Image, &p.Track, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Comments = []Comment{}
		p.ReactionsSummary = []ReactionCount{}
		ids = append(ids, p.ID)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	comments, err := s.loadComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	summary, err := s.loadReactionSummary(ctx, ids)
	if err != nil {
		return nil, err
	}
	viewer, err := s.loadViewerReactions(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		id := posts[i].ID
		if c, ok := comments[id]; ok {
			posts[i].Comments = c
		}
		if r, ok := summary[id]; ok {
			posts[i].ReactionsSummary = r
		}
		posts[i].UserReaction = viewer[id]
	}
	return posts, nil
}

func (s *Service) loadComments(ctx context.Context, postIDs []string) (map[string][]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.post_id, u.id, COALESCE(NULLIF(u.name,''), u.username), u.avatar_url,
		       c.content, c.created_at
		FROM post_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_at
	`, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := map[string][]Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Author.ID, &c.Author.Name, &c.Author.Avatar,
			&c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments[c.PostID] = append(comments[c.PostID], c)
	}
	return comments, rows.Err()
}

func (s *Service) loadReactionSummary(ctx context.Context, postIDs []string) (map[string][]ReactionCount, error) {
	rows, err := s.db.Query(ctx, `
		SELECT post_id, reaction_type, COUNT(*)
		FROM post_reactions
		WHERE post_id = ANY($1)
		GROUP BY post_id, reaction_type
		ORDER BY post_id, reaction_type
	`, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := map[string][]ReactionCount{}
	for rows.Next() {
		var postID string
		var rc ReactionCount
		if err := rows.Scan(&postID, &rc.ReactionType, &rc.Count); err != nil {
			return nil, err
		}
		summary[postID] = append(summary[postID], rc)
	}
	return summary, rows.Err()
}

func (s *Service) loadViewerReactions(ctx context.Context, postIDs []string, viewerID string) (map[string]string, error) {
	viewer := map[string]string{}
	if viewerID == "" {
		return viewer, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT post_id, reaction_type
		FROM post_reactions
		WHERE user_id = $2 AND post_id = ANY($1)
	`, postIDs, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID, reaction string
		if err := rows.Scan(&postID, &reaction); err != nil {
			return nil, err
		}
		viewer[postID] = reaction
	}
	return viewer, rows.Err()
}

// CreatePost accepts any combination of text, image, and track link as long
// as text or image is present.
func (s *Service) CreatePost(ctx context.Context, userID, content, imageURL string, trackID *string) (Post, error) {
	if content == "" && imageURL == "" {
		return Post{}, ErrEmptyPost
	}

	p := Post{
		ID:               uuid.NewString(),
		Content:          content,
		Image:            imageURL,
		Track:            trackID,
		Comments:         []Comment{},
		ReactionsSummary: []ReactionCount{},
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO community_posts (id, user_id, content, image_url, track_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at,
		          (SELECT COALESCE(NULLIF(name,''), username) FROM users WHERE id=$2),
		          (SELECT avatar_url FROM users WHERE id=$2)
	`, p.ID, userID, p.Content, p.Image, p.Track)
	if err := row.Scan(&p.CreatedAt, &p.Author.Name, &p.Author.Avatar); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// foreign_key_violation: the linked track id is bogus.
			return Post{}, ErrUnknownTrack
		}
		return Post{}, err
	}
	p.Author.ID = userID
	return p, nil
}

func (s *Service) DeletePost(ctx context.Context, postID, userID string) error {
	var ownerID string
	if err := s.db.QueryRow(ctx, `
		SELECT user_id FROM community_posts WHERE id = $1
	`, postID).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}

	_, err := s.db.Exec(ctx, `DELETE FROM community_posts WHERE id = $1`, postID)
	return err
}

func (s *Service) AddComment(ctx context.Context, postID, userID, content string) (Comment, error) {
	c := Comment{
		ID:      uuid.NewString(),
		PostID:  postID,
		Content: content,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, content)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at,
		          (SELECT COALESCE(NULLIF(name,''), username) FROM users WHERE id=$3),
		          (SELECT avatar_url FROM users WHERE id=$3)
	`, c.ID, c.PostID, userID, c.Content)
	if err := row.Scan(&c.CreatedAt, &c.Author.Name, &c.Author.Avatar); err != nil {
		return Comment{}, err
	}
	c.Author.ID = userID
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, commentID, userID string) error {
	var ownerID string
	if err := s.db.QueryRow(ctx, `
		SELECT user_id FROM post_comments WHERE id = $1
	`, commentID).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}

	_, err := s.db.Exec(ctx, `DELETE FROM post_comments WHERE id = $1`, commentID)
	return err
}

// React upserts: a viewer holds at most one reaction per post, so reacting
// with a different type replaces the previous one.
func (s *Service) React(ctx context.Context, postID, userID, reactionType string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO post_reactions (post_id, user_id, reaction_type)
		VALUES ($1,$2,$3)
		ON CONFLICT (post_id, user_id) DO UPDATE SET reaction_type = EXCLUDED.reaction_type
	`, postID, userID, reactionType)
	return err
}

func (s *Service) Unreact(ctx context.Context, postID, userID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM post_reactions WHERE post_id=$1 AND user_id=$2
	`, postID, userID)
	return err
}
