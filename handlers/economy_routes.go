// handlers/economy_routes.go
package handlers

import (
	"errors"
	"log"
	"strconv"

	"reward-economy-system/middleware"
	"reward-economy-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupEconomyRoutes wires the engine's HTTP surface. Everything sits behind
// the gateway auth (global) plus the user-context middleware; the gateway
// forwards paths like /api/v1/rewards/s/checkin -> /s/checkin.
func SetupEconomyRoutes(
	app *fiber.App,
	accounts *services.AccountService,
	checkIns *services.CheckInService,
	tasks *services.TaskService,
	adRewards *services.AdRewardService,
	pvp *services.PvpService,
	admin *services.AdminService,
	leaderboard *services.LeaderboardService,
) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/auth", func(c *fiber.Ctx) error {
		identity := c.Locals("user_id").(string)

		var req struct {
			DisplayName   string `json:"display_name"`
			ReferralToken string `json:"referral_token"`
		}
		if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		acct, err := accounts.Authenticate(c.Context(), identity, req.DisplayName, req.ReferralToken)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(fiber.Map{
			"identity":       acct.Identity,
			"display_name":   acct.DisplayName,
			"balance":        acct.Balance,
			"streak":         acct.Streak,
			"referral_count": acct.ReferralCount,
			"pvp_wins":       acct.PvpWins,
			"role":           acct.Role,
		})
	})

	secured.Get("/tasks", func(c *fiber.Ctx) error {
		identity := c.Locals("user_id").(string)
		views, err := tasks.ActiveTasks(c.Context(), identity)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(views)
	})

	secured.Post("/tasks/:id/claim", func(c *fiber.Ctx) error {
		identity := c.Locals("user_id").(string)
		result, err := tasks.ClaimTask(c.Context(), identity, c.Params("id"))
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(result)
	})

	secured.Post("/checkin", func(c *fiber.Ctx) error {
		identity := c.Locals("user_id").(string)
		result, err := checkIns.CheckIn(c.Context(), identity)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(result)
	})

	secured.Get("/checkin/status", func(c *fiber.Ctx) error {
		identity := c.Locals("user_id").(string)
		status, err := checkIns.Status(c.Context(), identity)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(status)
	})

	// Ad-network callbacks are at-least-once; a retry storm is worse than a
	// swallowed duplicate, so this endpoint is always success-shaped. The
	// real outcome is the granted flag plus server logs.
	secured.Post("/rewards/ad", func(c *fiber.Ctx) error {
		identity := c.Locals("user_id").(string)

		var req struct {
			RecordID string `json:"record_id"`
			Source   string `json:"source"`
		}
		if err := c.BodyParser(&req); err != nil {
			log.Printf("⚠️  [AD_REWARD] unparseable callback body for %s: %v", identity, err)
			return c.JSON(fiber.Map{"granted": false})
		}
		if req.Source == "" {
			req.Source = "unknown"
		}

		grant, err := adRewards.Claim(c.Context(), identity, req.RecordID, req.Source)
		if err != nil {
			log.Printf("⚠️  [AD_REWARD] claim failed for %s (record %s): %v", identity, req.RecordID, err)
			return c.JSON(fiber.Map{"granted": false})
		}
		return c.JSON(grant)
	})

	secured.Get("/pvp/target", func(c *fiber.Ctx) error {
		identity := c.Locals("user_id").(string)
		useDetection := c.QueryBool("use_detection", false)

		view, err := pvp.FindTarget(c.Context(), identity, useDetection)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(view)
	})

	secured.Post("/pvp/attack", func(c *fiber.Ctx) error {
		identity := c.Locals("user_id").(string)

		var req struct {
			Defender string `json:"defender"`
		}
		if err := c.BodyParser(&req); err != nil || req.Defender == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "defender is required"})
		}

		result, err := pvp.Attack(c.Context(), identity, req.Defender)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(result)
	})

	secured.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		entries, err := leaderboard.Top(c.Context(), c.Query("by", "balance"), limit)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(entries)
	})

	// Admin endpoints — the caller's own account must carry the admin role;
	// the gateway roles header alone is not trusted for mutations.
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/credit", func(c *fiber.Ctx) error {
		caller := c.Locals("user_id").(string)

		var req struct {
			Target string `json:"target" validate:"required"`
			Amount int64  `json:"amount" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil || req.Target == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "target and amount are required"})
		}

		balance, err := admin.Credit(c.Context(), caller, req.Target, req.Amount)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":     "credit applied",
			"target":      req.Target,
			"new_balance": balance,
		})
	})

	adminGroup.Post("/ban", adminBanHandler(admin, true))
	adminGroup.Post("/unban", adminBanHandler(admin, false))

	adminGroup.Post("/role", func(c *fiber.Ctx) error {
		caller := c.Locals("user_id").(string)

		var req struct {
			Target string `json:"target" validate:"required"`
			Role   string `json:"role" validate:"required,oneof=user admin"`
		}
		if err := c.BodyParser(&req); err != nil || req.Target == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "target and role are required"})
		}

		if err := admin.SetRole(c.Context(), caller, req.Target, req.Role); err != nil {
			return svcError(c, err)
		}
		return c.JSON(fiber.Map{"message": "role updated", "target": req.Target, "role": req.Role})
	})

	adminGroup.Post("/items/grant", func(c *fiber.Ctx) error {
		caller := c.Locals("user_id").(string)

		var req struct {
			Target   string `json:"target" validate:"required"`
			ItemCode string `json:"item_code" validate:"required"`
			Quantity int64  `json:"quantity" validate:"required,min=1"`
		}
		if err := c.BodyParser(&req); err != nil || req.Target == "" || req.ItemCode == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "target and item_code are required"})
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		if err := admin.GrantItem(c.Context(), caller, req.Target, req.ItemCode, req.Quantity); err != nil {
			return svcError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":   "item granted",
			"target":    req.Target,
			"item_code": req.ItemCode,
			"quantity":  req.Quantity,
		})
	})
}

func adminBanHandler(admin *services.AdminService, banned bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := c.Locals("user_id").(string)

		var req struct {
			Target string `json:"target" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil || req.Target == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "target is required"})
		}

		if err := admin.SetBanned(c.Context(), caller, req.Target, banned); err != nil {
			return svcError(c, err)
		}
		return c.JSON(fiber.Map{"message": "ban state updated", "target": req.Target, "banned": banned})
	}
}

// svcError maps the service error taxonomy onto HTTP statuses.
func svcError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrSelfReferral),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInsufficientItem):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrNoEligibleTarget):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTaskInactive):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyClaimed),
		errors.Is(err, services.ErrAlreadyCheckedIn),
		errors.Is(err, services.ErrDuplicateReceipt):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrBanned):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTransientStore):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error(), "retryable": true})
	default:
		log.Printf("❌ [HTTP] internal error on %s: %v", c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
