// issue-token registers (or updates) a user row and prints a session token
// for it. Sign-in is handled outside this service; operators use the tool to
// bootstrap admins and for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/boxforum/boxforum/backend/internal/service"
	"github.com/boxforum/boxforum/backend/internal/storage/cache"
	"github.com/boxforum/boxforum/backend/internal/storage/pg"
	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/domain"
	"github.com/boxforum/boxforum/shared/jwt"
	"github.com/boxforum/boxforum/shared/logger"
	"github.com/google/uuid"
)

func main() {
	var (
		configFolder string
		id           string
		fullname     string
		avatarUrl    string
		role         string
	)
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.StringVar(&id, "id", "", "user id (uuid); a new one is generated when empty")
	flag.StringVar(&fullname, "fullname", "", "display name")
	flag.StringVar(&avatarUrl, "avatar", "", "avatar url")
	flag.StringVar(&role, "role", string(domain.RoleUser), "user, moderator or admin")
	flag.Parse()

	if err := run(configFolder, id, fullname, avatarUrl, domain.Role(role)); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configFolder, id, fullname, avatarUrl string, role domain.Role) error {
	if fullname == "" {
		return fmt.Errorf("-fullname is required")
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid -id: %w", err)
	}

	cfg := config.MustLoad(configFolder)
	logger.Initialize("warn", false)

	storage, err := pg.New(cfg)
	if err != nil {
		return err
	}
	defer storage.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user := domain.User{Id: id, Fullname: fullname, AvatarUrl: avatarUrl, Role: role}
	if err := storage.SaveUser(ctx, user); err != nil {
		return err
	}

	// the API serves cached profiles until the entry expires
	if cfg.Private.Redis.URL != "" {
		c, err := cache.NewRedisUserCache(cfg.Private.Redis.URL)
		if err != nil {
			return fmt.Errorf("user saved but cache unavailable: %w", err)
		}
		defer c.Close()
		service.NewUsers(storage, c, cfg.Public.UserCacheTTL, logger.Log).Forget(ctx, id)
	}

	token, err := jwt.New(cfg.JwtKey(), cfg.JwtTTL()).NewToken(user)
	if err != nil {
		return err
	}
	fmt.Printf("user:  %s (%s)\n", id, role)
	fmt.Printf("token: %s\n", token)
	return nil
}
