package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"raidbot/internal/domain"
	"raidbot/internal/profile"
	"raidbot/internal/repository"
	"raidbot/internal/service"
)

// IncomingMessage is a chat command as handed over by a transport adapter.
type IncomingMessage struct {
	TelegramID  int64
	DisplayName string
	Text        string
}

// Handler dispatches text commands to the domain services and renders
// plain-text replies.
type Handler struct {
	users        service.UserService
	bonus        service.BonusService
	raids        service.RaidService
	profiles     profile.Gateway
	ownerID      int64
	defaultSlots int
	logger       *logrus.Logger
}

func NewHandler(users service.UserService, bonus service.BonusService, raids service.RaidService, profiles profile.Gateway, ownerID int64, defaultSlots int, logger *logrus.Logger) *Handler {
	if defaultSlots < 1 {
		defaultSlots = 10
	}
	return &Handler{
		users:        users,
		bonus:        bonus,
		raids:        raids,
		profiles:     profiles,
		ownerID:      ownerID,
		defaultSlots: defaultSlots,
		logger:       logger,
	}
}

const genericFailure = "Could not complete the command, please try again later."

// HandleCommand executes one command and returns the reply text.
func (h *Handler) HandleCommand(ctx context.Context, msg IncomingMessage) string {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return h.helpText()
	}

	command := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	args := fields[1:]

	switch command {
	case "start":
		return h.handleStart(ctx, msg)
	case "linkuid":
		return h.handleLinkUID(ctx, msg, args)
	case "profile":
		return h.handleProfile(ctx, msg)
	case "daily":
		return h.handleDaily(ctx, msg)
	case "create_raid":
		return h.handleCreateRaid(ctx, msg, args)
	case "join":
		return h.handleJoin(ctx, msg, args)
	case "list_raids":
		return h.handleListRaids(ctx, msg)
	case "export_raids":
		return h.handleExport(ctx, msg)
	case "help":
		return h.helpText()
	default:
		return "Unknown command. Send /help for the command list."
	}
}

func (h *Handler) handleStart(ctx context.Context, msg IncomingMessage) string {
	user, err := h.users.EnsureUser(ctx, msg.TelegramID, msg.DisplayName)
	if err != nil {
		return h.fail(err, "start")
	}
	name := user.DisplayName
	if name == "" {
		name = "raider"
	}
	return fmt.Sprintf("Welcome, %s! Send /help to see what I can do.", name)
}

func (h *Handler) handleLinkUID(ctx context.Context, msg IncomingMessage, args []string) string {
	if len(args) != 1 {
		return "Usage: /linkuid <id>"
	}
	if _, err := h.users.LinkProfile(ctx, msg.TelegramID, args[0]); err != nil {
		if errors.Is(err, service.ErrEmptyProfileUID) {
			return "Usage: /linkuid <id>"
		}
		return h.fail(err, "linkuid")
	}
	return fmt.Sprintf("Profile UID %s linked.", args[0])
}

func (h *Handler) handleProfile(ctx context.Context, msg IncomingMessage) string {
	user, err := h.users.EnsureUser(ctx, msg.TelegramID, msg.DisplayName)
	if err != nil {
		return h.fail(err, "profile")
	}
	if user.ProfileUID == "" {
		return "No profile linked yet. Use /linkuid <id> first."
	}

	p, err := h.profiles.Fetch(ctx, user.ProfileUID)
	if err != nil {
		if errors.Is(err, profile.ErrUnavailable) {
			return "Profile data is unavailable right now, try again later."
		}
		return h.fail(err, "profile")
	}
	return fmt.Sprintf("Profile %s\nNickname: %s\nLevel: %d\nCrystals: %d", p.UID, p.Nickname, p.Level, user.Crystals)
}

func (h *Handler) handleDaily(ctx context.Context, msg IncomingMessage) string {
	user, err := h.bonus.Claim(ctx, msg.TelegramID, msg.DisplayName)
	if err != nil {
		var cooldown *service.CooldownActiveError
		if errors.As(err, &cooldown) {
			return fmt.Sprintf("Daily bonus already claimed. Next one in %s.", formatHMS(cooldown.Remaining))
		}
		return h.fail(err, "daily")
	}
	return fmt.Sprintf("You received %d crystals. Balance: %d.", service.DailyReward, user.Crystals)
}

func (h *Handler) handleCreateRaid(ctx context.Context, msg IncomingMessage, args []string) string {
	const usage = "Usage: /create_raid <boss> <YYYY-MM-DD> <HH:MM> [slots]"
	if len(args) < 3 {
		return usage
	}

	slots := h.defaultSlots
	timeIdx := len(args) - 1
	if v, err := strconv.Atoi(args[len(args)-1]); err == nil && len(args) >= 4 {
		slots = v
		timeIdx = len(args) - 2
	}
	if timeIdx < 2 {
		return usage
	}

	boss := strings.Join(args[:timeIdx-1], " ")
	startTime, err := time.Parse("2006-01-02 15:04", args[timeIdx-1]+" "+args[timeIdx])
	if err != nil {
		return "Could not parse the start time. Use YYYY-MM-DD HH:MM (UTC)."
	}
	startTime = startTime.UTC()

	user, err := h.users.EnsureUser(ctx, msg.TelegramID, msg.DisplayName)
	if err != nil {
		return h.fail(err, "create_raid")
	}

	raid, err := h.raids.CreateRaid(ctx, boss, startTime, slots, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBossName):
			return "The boss name must not be empty."
		case errors.Is(err, service.ErrInvalidCapacity):
			return "Slots must be at least 1."
		case errors.Is(err, service.ErrInvalidStartTime):
			return "Could not parse the start time. Use YYYY-MM-DD HH:MM (UTC)."
		}
		return h.fail(err, "create_raid")
	}
	return fmt.Sprintf("Raid #%d %q created for %s UTC with %d slots. Join with /join %d.",
		raid.ID, raid.Boss, raid.StartTime.Format("2006-01-02 15:04"), raid.Capacity, raid.ID)
}

func (h *Handler) handleJoin(ctx context.Context, msg IncomingMessage, args []string) string {
	if len(args) != 1 {
		return "Usage: /join <raid_id>"
	}
	raidID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || raidID <= 0 {
		return "Usage: /join <raid_id>"
	}

	user, err := h.users.EnsureUser(ctx, msg.TelegramID, msg.DisplayName)
	if err != nil {
		return h.fail(err, "join")
	}

	if err := h.raids.Join(ctx, raidID, user.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrRaidNotFound):
			return fmt.Sprintf("Raid #%d does not exist.", raidID)
		case errors.Is(err, repository.ErrRaidFull):
			return fmt.Sprintf("Raid #%d is already full.", raidID)
		case errors.Is(err, repository.ErrAlreadyJoined):
			return fmt.Sprintf("You already joined raid #%d.", raidID)
		}
		return h.fail(err, "join")
	}
	return fmt.Sprintf("You joined raid #%d. See you there!", raidID)
}

func (h *Handler) handleListRaids(ctx context.Context, msg IncomingMessage) string {
	raids, err := h.raids.ListUpcoming(ctx)
	if err != nil {
		return h.fail(err, "list_raids")
	}
	if len(raids) == 0 {
		return "No upcoming raids. Create one with /create_raid."
	}

	var b strings.Builder
	b.WriteString("Upcoming raids:\n")
	for i := range raids {
		count, err := h.raids.ParticipantCount(ctx, raids[i].ID)
		if err != nil {
			return h.fail(err, "list_raids")
		}
		fmt.Fprintf(&b, "#%d %s — %s UTC (%d/%d)\n",
			raids[i].ID, raids[i].Boss, raids[i].StartTime.Format("2006-01-02 15:04"), count, raids[i].Capacity)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) handleExport(ctx context.Context, msg IncomingMessage) string {
	if msg.TelegramID != h.ownerID {
		return "This command is only available to the bot owner."
	}

	summaries, err := h.raids.ExportSummary(ctx)
	if err != nil {
		return h.fail(err, "export_raids")
	}
	return RenderExport(summaries)
}

// RenderExport formats the owner report as tab-separated rows with an
// ISO-8601 UTC start column. Shared with the admin HTTP surface.
func RenderExport(summaries []domain.RaidSummary) string {
	var b strings.Builder
	b.WriteString("ID\tBoss\tStart\tSlots\tParticipants")
	for i := range summaries {
		fmt.Fprintf(&b, "\n%d\t%s\t%s\t%d\t%d",
			summaries[i].ID,
			summaries[i].Boss,
			summaries[i].StartTime.UTC().Format(time.RFC3339),
			summaries[i].Capacity,
			summaries[i].Participants,
		)
	}
	return b.String()
}

func (h *Handler) fail(err error, command string) string {
	h.logger.WithError(err).WithField("command", command).Error("command failed")
	return genericFailure
}

func (h *Handler) helpText() string {
	return strings.Join([]string{
		"Commands:",
		"/start — register with the bot",
		"/daily — claim the daily crystal bonus",
		"/linkuid <id> — link your game profile",
		"/profile — show your linked profile",
		"/create_raid <boss> <YYYY-MM-DD> <HH:MM> [slots] — schedule a raid (UTC)",
		"/join <raid_id> — join a raid",
		"/list_raids — upcoming raids",
		"/export_raids — owner-only report",
		"/help — this message",
	}, "\n")
}

func formatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
