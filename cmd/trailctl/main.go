package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aksaraymalaklisi/greentrail/internal/chat"
	"github.com/aksaraymalaklisi/greentrail/internal/client"
	"github.com/aksaraymalaklisi/greentrail/internal/config"
	"github.com/aksaraymalaklisi/greentrail/internal/session"
	"github.com/aksaraymalaklisi/greentrail/internal/views"
)

const usage = `trailctl <command> [args]

commands:
  login <username> <password>
  register <username> <email> <password> [name]
  logout
  me
  tracks [query]
  track <id>
  favorite <id>
  unfavorite <id>
  favorites
  feed
  post <text>
  chat
`

func main() {
	cfg := config.Load()
	if cfg.CredentialPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "resolve home dir: %v\n", err)
			os.Exit(1)
		}
		cfg.CredentialPath = filepath.Join(home, ".greentrail", "credentials.json")
	}

	store, err := client.NewFileStore(cfg.CredentialPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "credential store: %v\n", err)
		os.Exit(1)
	}

	api := client.New(cfg.APIBaseURL, store)
	sess := session.NewManager(api)
	sess.Bootstrap(context.Background())

	if err := run(os.Args[1:], cfg, api, sess, os.Stdout, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "trailctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, cfg config.Config, api *client.Client, sess *session.Manager, out io.Writer, in io.Reader) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return nil
	}
	ctx := context.Background()

	switch args[0] {
	case "login":
		if len(args) != 3 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		if err := sess.Login(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(out, "logged in as %s\n", sess.Snapshot().User.Username)
		return nil

	case "register":
		if len(args) < 4 {
			return fmt.Errorf("usage: register <username> <email> <password> [name]")
		}
		name := ""
		if len(args) > 4 {
			name = args[4]
		}
		user, err := sess.Register(ctx, args[1], args[2], args[3], name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "registered %s, log in to continue\n", user.Username)
		return nil

	case "logout":
		sess.Logout()
		fmt.Fprintln(out, "logged out")
		return nil

	case "me":
		snap := sess.Snapshot()
		if snap.State != session.Authenticated {
			return fmt.Errorf("not logged in")
		}
		fmt.Fprintf(out, "%s (%s) %s\n", snap.User.Username, snap.User.Email, snap.User.Name)
		return nil

	case "tracks":
		vm := views.NewTrackListVM(api)
		if err := vm.Load(ctx); err != nil {
			return err
		}
		query := ""
		if len(args) > 1 {
			query = strings.Join(args[1:], " ")
		}
		for _, track := range vm.Filter(query) {
			printTrack(out, track)
		}
		return nil

	case "track":
		if len(args) != 2 {
			return fmt.Errorf("usage: track <id>")
		}
		vm := views.NewTrackDetailVM(api)
		if err := vm.Load(ctx, args[1]); err != nil {
			return err
		}
		track, _ := vm.Track()
		printTrack(out, track)
		fmt.Fprintln(out, track.Description)
		return nil

	case "favorite", "unfavorite":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <id>", args[0])
		}
		vm := views.NewTrackListVM(api)
		if err := vm.Load(ctx); err != nil {
			return err
		}
		for _, track := range vm.Tracks() {
			if track.ID != args[1] {
				continue
			}
			if track.IsFavorite == (args[0] == "favorite") {
				fmt.Fprintln(out, "nothing to do")
				return nil
			}
			return vm.ToggleFavorite(ctx, args[1])
		}
		return views.ErrNotFound

	case "favorites":
		vm := views.NewFavoritesVM(api)
		if err := vm.Load(ctx); err != nil {
			return err
		}
		for _, track := range vm.Tracks() {
			printTrack(out, track)
		}
		return nil

	case "feed":
		vm := views.NewFeedVM(api)
		if err := vm.Load(ctx); err != nil {
			return err
		}
		for _, post := range vm.Posts() {
			fmt.Fprintf(out, "[%s] %s: %s (%d reactions, %d comments)\n",
				post.ID, post.Author.Name, post.Content, post.Reactions(), len(post.Comments))
		}
		return nil

	case "post":
		if len(args) < 2 {
			return fmt.Errorf("usage: post <text>")
		}
		vm := views.NewFeedVM(api)
		post, err := vm.CreatePost(ctx, strings.Join(args[1:], " "), "", nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "posted %s\n", post.ID)
		return nil

	case "chat":
		return runChat(cfg, sess, out, in)

	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printTrack(out io.Writer, track views.Track) {
	fav := " "
	if track.IsFavorite {
		fav = "*"
	}
	fmt.Fprintf(out, "%s [%s] %s (%s, %.0fm, ~%.0fmin)\n",
		fav, track.ID, track.Label, track.Difficulty, track.Distance, track.Duration)
}

func runChat(cfg config.Config, sess *session.Manager, out io.Writer, in io.Reader) error {
	channel := chat.NewChannel(sess, cfg.WSBaseURL)
	if err := channel.Open(); err != nil {
		return err
	}
	defer channel.Close()

	printed := 0
	flush := func() {
		for _, msg := range channel.Messages()[printed:] {
			who := "assistente"
			if msg.FromViewer {
				who = "você"
			}
			fmt.Fprintf(out, "%s: %s\n", who, msg.Text)
			printed++
		}
	}
	flush()

	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "(linha vazia encerra)")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) == "" {
			return scanner.Err()
		}
		if err := channel.Send(scanner.Text()); err != nil {
			return err
		}
		// Give the assistant a moment to answer before reprinting.
		time.Sleep(500 * time.Millisecond)
		flush()
	}
}
