package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aulaflow/streaks-backend/internal/domain"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/driver"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/validate"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type StreakHandler struct {
	streakUseCase domain.StreakUseCase
	rdb           driver.KeyValueDB
	validator     validate.Validator
}

func NewStreakHandler(
	StreakUseCase domain.StreakUseCase,
	RDB driver.KeyValueDB,
	Validator validate.Validator,
) *StreakHandler {
	handler := &StreakHandler{StreakUseCase, RDB, Validator}
	return handler
}

// CompletionPost inbound payload for a finished lesson. Lesson number and
// title only travel into the audit trail.
type CompletionPost struct {
	UserID       string `json:"user_id" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	LessonNumber int    `json:"lesson_number" validate:"omitempty,min=1"`
	LessonTitle  string `json:"lesson_title"`
}

// RecoveryPost inbound payload for a streak recovery purchase
type RecoveryPost struct {
	UserID string `json:"user_id" validate:"required"`
	Reason string `json:"reason"`
}

func (sh *StreakHandler) HandleRecordCompletion(c echo.Context) (err error) {
	post := new(CompletionPost)
	if err := c.Bind(post); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, "Failed to parse body"))
	}
	if errs := sh.validator.Struct(post); errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	// duplicate guard: the same lesson event only counts once per week
	if post.LessonNumber > 0 {
		now := time.Now()
		key := fmt.Sprintf("completion:%s:%s:%d:%s",
			post.UserID, post.CourseID, post.LessonNumber,
			domain.WeekStart(now).Format("2006-01-02"))
		fresh, err := sh.rdb.SetNX(key, "1", time.Until(domain.WeekEnd(now)))
		if err != nil {
			return err
		}
		if !fresh {
			return c.JSON(http.StatusConflict,
				NewRESTStandardError(http.StatusConflict, domain.ErrDuplicateCompletion.Error()))
		}
	}

	result, err := sh.streakUseCase.RecordLessonCompletion(c.Request().Context(), &domain.CompletionEvent{
		UserID:       post.UserID,
		CourseID:     post.CourseID,
		LessonNumber: post.LessonNumber,
		LessonTitle:  post.LessonTitle,
	})
	if err != nil {
		if err == domain.ErrUserRequired || err == domain.ErrCourseRequired {
			return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, err.Error()))
		}
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (sh *StreakHandler) HandleGetStats(c echo.Context) (err error) {
	userID := c.QueryParam("user_id")
	if errs := sh.validator.Empty("user_id", userID); errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	stats, err := sh.streakUseCase.GetUserStreakStats(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// HandlePointsPreview answers "what would this week pay" without touching
// any state.
func (sh *StreakHandler) HandlePointsPreview(c echo.Context) (err error) {
	lessons, err := queryInt(c, "lessons")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", []*validate.FieldError{
			validate.NewFieldError("lessons", err.Error()),
		}))
	}
	courses, err := queryInt(c, "courses")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", []*validate.FieldError{
			validate.NewFieldError("courses", err.Error()),
		}))
	}
	streak, err := queryInt(c, "streak")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", []*validate.FieldError{
			validate.NewFieldError("streak", err.Error()),
		}))
	}

	points := sh.streakUseCase.CalculateWeeklyPoints(lessons, courses, streak)
	return c.JSON(http.StatusOK, echo.Map{
		"lessons": lessons,
		"courses": courses,
		"streak":  streak,
		"points":  points,
	})
}

func (sh *StreakHandler) HandleUseRecovery(c echo.Context) (err error) {
	post := new(RecoveryPost)
	if err := c.Bind(post); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, "Failed to parse body"))
	}
	if errs := sh.validator.Struct(post); errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	result, err := sh.streakUseCase.UseStreakRecovery(c.Request().Context(), post.UserID, post.Reason)
	if err != nil {
		var re *domain.RecoveryError
		if errors.As(err, &re) {
			return c.JSON(http.StatusConflict, NewRESTStandardError(http.StatusConflict, re.Reason))
		}
		if err == domain.ErrUserRequired {
			return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, err.Error()))
		}
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// StatsFeed serves the websocket stats channel: the client sends a user ID
// and receives the current week view, repeatedly.
func (sh *StreakHandler) StatsFeed(conn *websocket.Conn) error {
	req := new(struct {
		UserID string `json:"user_id"`
	})
	if err := conn.ReadJSON(req); err != nil {
		return err
	}
	stats, err := sh.streakUseCase.ComputeCurrentWeekView(context.Background(), req.UserID)
	if err != nil {
		conn.WriteJSON(echo.Map{"error": err.Error()})
		return err
	}
	return conn.WriteJSON(stats)
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return value, nil
}
