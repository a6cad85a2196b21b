package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"Stardust/internal/model"
	"Stardust/internal/progression"
	"Stardust/internal/reducer"
	"Stardust/internal/store"
)

// Broadcaster fans a delta out to connected clients.
type Broadcaster interface {
	Publish(d model.PlayerDelta)
}

// LiveSession is the in-process session, if any, that must see admin edits.
type LiveSession interface {
	Player() model.Player
	ApplyPush(d model.PlayerDelta) bool
	Dispatch(a reducer.Action) (model.Player, error)
}

// Commands implements the admin bot commands on top of the player store.
type Commands struct {
	Store       store.Store
	Session     LiveSession
	Broadcaster Broadcaster
}

// Handle executes one command line and returns the reply text.
func (c *Commands) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.ToLower(fields[0])
	// Commands in groups arrive as /cmd@botname.
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	var reply string
	var err error
	switch cmd {
	case "/start", "/help":
		return FormatHelp()
	case "/status":
		reply, err = c.status(ctx, args)
	case "/ban":
		reply, err = c.setBanned(ctx, args, true)
	case "/unban":
		reply, err = c.setBanned(ctx, args, false)
	case "/stars":
		reply, err = c.setStars(ctx, args)
	case "/level":
		reply, err = c.setLevel(ctx, args)
	case "/paid":
		reply, err = c.settle(args, model.WithdrawalPaid)
	case "/reject":
		reply, err = c.settle(args, model.WithdrawalRejected)
	default:
		return "Unknown command. Send /help"
	}
	if err != nil {
		log.Printf("[WARN] command %s failed: %v", cmd, err)
		return "❌ " + err.Error()
	}
	return reply
}

var errUsage = errors.New("wrong arguments, send /help")

func (c *Commands) status(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	snap, err := c.Store.FetchPlayer(ctx, args[0])
	if err != nil {
		return "", err
	}
	if snap == nil {
		return "", fmt.Errorf("player %s: %w", args[0], store.ErrNotFound)
	}
	return FormatStatus(snap), nil
}

func (c *Commands) setBanned(ctx context.Context, args []string, banned bool) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	d := model.PlayerDelta{PlayerID: args[0], IsBanned: &banned}
	if err := c.apply(ctx, d); err != nil {
		return "", err
	}
	if banned {
		return fmt.Sprintf("🚫 %s banned", args[0]), nil
	}
	return fmt.Sprintf("✅ %s unbanned", args[0]), nil
}

func (c *Commands) setStars(ctx context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", errUsage
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 {
		return "", errUsage
	}
	if err := c.apply(ctx, model.PlayerDelta{PlayerID: args[0], Stars: &n}); err != nil {
		return "", err
	}
	return fmt.Sprintf("⭐ %s now has %d stars", args[0], n), nil
}

func (c *Commands) setLevel(ctx context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", errUsage
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 || n > progression.MaxLevel {
		return "", fmt.Errorf("level must be between 1 and %d", progression.MaxLevel)
	}
	if err := c.apply(ctx, model.PlayerDelta{PlayerID: args[0], Level: &n}); err != nil {
		return "", err
	}
	return fmt.Sprintf("🆙 %s is now level %d", args[0], n), nil
}

// apply writes the delta to the store and pushes it to live clients.
func (c *Commands) apply(ctx context.Context, d model.PlayerDelta) error {
	if err := c.Store.ApplyDelta(ctx, d); err != nil {
		return err
	}
	if c.Session != nil {
		c.Session.ApplyPush(d)
	}
	if c.Broadcaster != nil {
		c.Broadcaster.Publish(d)
	}
	return nil
}

// settle changes a withdrawal status. Withdrawals live in the session-owned
// state blob, so the player has to be loaded in this process.
func (c *Commands) settle(args []string, status model.WithdrawalStatus) (string, error) {
	if len(args) != 2 {
		return "", errUsage
	}
	if c.Session == nil || c.Session.Player().ID != args[0] {
		return "", fmt.Errorf("player %s has no live session here", args[0])
	}
	if _, err := c.Session.Dispatch(reducer.SettleWithdrawal{WithdrawalID: args[1], Status: status}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Withdrawal %s marked %s", args[1], status), nil
}
