package views

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/aksaraymalaklisi/greentrail/internal/client"
)

var (
	ErrEmptyPost    = errors.New("a post needs text or an image")
	ErrEmptyComment = errors.New("a comment needs text")
)

// likeReaction is the single reaction type the feed toggles. The wire
// shape still carries per-type counts, collapsed to a total here.
const likeReaction = "like"

type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type Comment struct {
	ID        string `json:"id"`
	Author    Author `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type ReactionCount struct {
	ReactionType string `json:"reaction_type"`
	Count        int    `json:"count"`
}

type Post struct {
	ID               string          `json:"id"`
	Author           Author          `json:"author"`
	Content          string          `json:"content"`
	Image            string          `json:"image"`
	Track            *string         `json:"track"`
	Comments         []Comment       `json:"comments"`
	ReactionsSummary []ReactionCount `json:"reactions_summary"`
	UserReaction     string          `json:"user_reaction"`
	CreatedAt        string          `json:"created_at"`
}

// Reactions is the total across all reaction types.
func (p Post) Reactions() int {
	total := 0
	for _, rc := range p.ReactionsSummary {
		total += rc.Count
	}
	return total
}

func decodePostList(data []byte) ([]Post, error) {
	var bare []Post
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var envelope struct {
		Results []Post `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Results, nil
}

// ImageAttachment is an uploaded file carried into a multipart post.
type ImageAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FeedVM presents the community feed with optimistic reaction
// toggling and confirm-gated deletion.
type FeedVM struct {
	api *client.Client

	mu    sync.RWMutex
	posts []Post
}

func NewFeedVM(api *client.Client) *FeedVM {
	return &FeedVM{api: api}
}

func (vm *FeedVM) Load(ctx context.Context) error {
	data, err := vm.api.Get(ctx, "community-posts/", true)
	if err != nil {
		return err
	}
	posts, err := decodePostList(data)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.posts = posts
	vm.mu.Unlock()
	return nil
}

func (vm *FeedVM) Posts() []Post {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]Post, len(vm.posts))
	copy(out, vm.posts)
	return out
}

// CreatePost submits a multipart post. Text and image are each
// optional but at least one must be present; that guard never reaches
// the network.
func (vm *FeedVM) CreatePost(ctx context.Context, content, trackID string, image *ImageAttachment) (Post, error) {
	if strings.TrimSpace(content) == "" && image == nil {
		return Post{}, ErrEmptyPost
	}

	form := &client.Form{}
	form.AddField("content", content)
	if trackID != "" {
		form.AddField("track", trackID)
	}
	if image != nil {
		form.AddFile("image", image.Filename, image.ContentType, image.Data)
	}

	data, err := vm.api.PostForm(ctx, "community-posts/", form)
	if err != nil {
		return Post{}, err
	}
	var post Post
	if err := json.Unmarshal(data, &post); err != nil {
		return Post{}, err
	}

	vm.mu.Lock()
	vm.posts = append([]Post{post}, vm.posts...)
	vm.mu.Unlock()
	return post, nil
}

// DeletePost asks confirm before issuing anything. The post leaves
// local state only once the server accepts the delete.
func (vm *FeedVM) DeletePost(ctx context.Context, postID string, confirm func() bool) error {
	if confirm != nil && !confirm() {
		return nil
	}
	if _, err := vm.api.Delete(ctx, "community-posts/"+postID+"/"); err != nil {
		return err
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range vm.posts {
		if vm.posts[i].ID == postID {
			vm.posts = append(vm.posts[:i], vm.posts[i+1:]...)
			break
		}
	}
	return nil
}

func (vm *FeedVM) DeleteComment(ctx context.Context, postID, commentID string, confirm func() bool) error {
	if confirm != nil && !confirm() {
		return nil
	}
	if _, err := vm.api.Delete(ctx, "comments/"+commentID+"/"); err != nil {
		return err
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range vm.posts {
		if vm.posts[i].ID != postID {
			continue
		}
		for j := range vm.posts[i].Comments {
			if vm.posts[i].Comments[j].ID == commentID {
				vm.posts[i].Comments = append(vm.posts[i].Comments[:j], vm.posts[i].Comments[j+1:]...)
				break
			}
		}
		break
	}
	return nil
}

func (vm *FeedVM) AddComment(ctx context.Context, postID, content string) (Comment, error) {
	if strings.TrimSpace(content) == "" {
		return Comment{}, ErrEmptyComment
	}
	data, err := vm.api.Post(ctx, "community-posts/"+postID+"/comment/", map[string]string{"content": content}, true)
	if err != nil {
		return Comment{}, err
	}
	var comment Comment
	if err := json.Unmarshal(data, &comment); err != nil {
		return Comment{}, err
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range vm.posts {
		if vm.posts[i].ID == postID {
			vm.posts[i].Comments = append(vm.posts[i].Comments, comment)
			break
		}
	}
	return comment, nil
}

// ToggleReaction applies the flag and count change locally, issues the
// mutation, then re-fetches the feed whether or not the request
// succeeded, so counts drift from concurrent actors gets reconciled.
func (vm *FeedVM) ToggleReaction(ctx context.Context, postID string) error {
	withdrawing, ok := vm.applyReactionLocally(postID)
	if !ok {
		return ErrNotFound
	}

	var err error
	if withdrawing {
		_, err = vm.api.Delete(ctx, "community-posts/"+postID+"/react/")
	} else {
		_, err = vm.api.Post(ctx, "community-posts/"+postID+"/react/", map[string]string{"reaction_type": likeReaction}, true)
	}

	if refetchErr := vm.Load(ctx); err == nil {
		err = refetchErr
	}
	return err
}

func (vm *FeedVM) applyReactionLocally(postID string) (withdrawing bool, ok bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range vm.posts {
		if vm.posts[i].ID != postID {
			continue
		}
		post := &vm.posts[i]
		if post.UserReaction == likeReaction {
			post.UserReaction = ""
			adjustCount(post, likeReaction, -1)
			return true, true
		}
		if post.UserReaction != "" {
			adjustCount(post, post.UserReaction, -1)
		}
		post.UserReaction = likeReaction
		adjustCount(post, likeReaction, +1)
		return false, true
	}
	return false, false
}

func adjustCount(post *Post, reactionType string, delta int) {
	for i := range post.ReactionsSummary {
		if post.ReactionsSummary[i].ReactionType == reactionType {
			post.ReactionsSummary[i].Count += delta
			if post.ReactionsSummary[i].Count <= 0 {
				post.ReactionsSummary = append(post.ReactionsSummary[:i], post.ReactionsSummary[i+1:]...)
			}
			return
		}
	}
	if delta > 0 {
		post.ReactionsSummary = append(post.ReactionsSummary, ReactionCount{ReactionType: reactionType, Count: delta})
	}
}
