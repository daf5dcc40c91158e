package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavshah/schedule-board-api/pkg/board"
	"github.com/arnavshah/schedule-board-api/pkg/engine"
	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/projector"
	"github.com/arnavshah/schedule-board-api/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// board event types pushed to websocket clients
const (
	eventSnapshot = "snapshot"
	eventBoard    = "board"
	eventReset    = "reset"
)

type boardEvent struct {
	Type    string         `json:"type"`
	Outcome engine.Outcome `json:"outcome,omitempty"`
	Board   board.Snapshot `json:"board"`
}

type dragPosition struct {
	DroppableID string `json:"droppableId" binding:"required"`
	Index       int    `json:"index"`
}

func (p dragPosition) position() (engine.Position, error) {
	loc, err := grid.ParseContainerID(p.DroppableID)
	if err != nil {
		return engine.Position{}, err
	}
	return engine.Position{Location: loc, Index: p.Index}, nil
}

type dragRequest struct {
	Source      dragPosition  `json:"source"`
	Destination *dragPosition `json:"destination"`
}

func (r dragRequest) drop() (engine.Drop, error) {
	src, err := r.Source.position()
	if err != nil {
		return engine.Drop{}, err
	}
	d := engine.Drop{Source: src}
	if r.Destination != nil {
		dst, err := r.Destination.position()
		if err != nil {
			return engine.Drop{}, err
		}
		d.Destination = &dst
	}
	return d, nil
}

type mutationResponse struct {
	Applied bool           `json:"applied"`
	Outcome engine.Outcome `json:"outcome"`
	Board   board.Snapshot `json:"board"`
}

func (h *Handler) commit(ctx context.Context, scheduleID string) board.CommitFunc {
	return func(g grid.Grid) error {
		return h.Store.SaveScheduleGrid(ctx, scheduleID, g)
	}
}

// maxBoardAttempts bounds how often a mutation follows a board that was
// retired under it.
const maxBoardAttempts = 3

// withBoard runs fn against the live board of a schedule. A board evicted or
// invalidated between lookup and mutation is fetched again.
func (h *Handler) withBoard(ctx context.Context, scheduleID string, fn func(b *board.Board) error) error {
	var err error
	for attempt := 0; attempt < maxBoardAttempts; attempt++ {
		var b *board.Board
		if b, err = h.Boards.Get(ctx, scheduleID); err != nil {
			return err
		}
		if err = fn(b); !errors.Is(err, board.ErrRetired) {
			return err
		}
		h.Log.Debug("board retired during mutation, retrying",
			zap.String("schedule_id", scheduleID),
			zap.Int("attempt", attempt+1))
	}
	return err
}

// publish broadcasts applied changes. Boards call it under their lock, so
// watchers receive events in version order.
func (h *Handler) publish(eventType string) board.PublishFunc {
	return func(snap board.Snapshot, outcome engine.Outcome) {
		h.broadcast(boardEvent{Type: eventType, Outcome: outcome, Board: snap})
	}
}

func (h *Handler) broadcast(ev boardEvent) {
	if err := h.Hub.Broadcast(ev.Board.ScheduleID, ev); err != nil {
		h.Log.Warn("board broadcast failed", zap.String("schedule_id", ev.Board.ScheduleID), zap.Error(err))
	}
}

// respondMutation counts the outcome for usage tracking and writes the
// result. Watchers were already notified by the board.
func (h *Handler) respondMutation(c *gin.Context, snap board.Snapshot, outcome engine.Outcome) {
	if outcome.Applied() {
		c.Set(ctxApplied, 1)
	} else {
		c.Set(ctxRejected, 1)
	}
	h.Log.Debug("board mutation",
		zap.String("schedule_id", snap.ScheduleID),
		zap.String("outcome", string(outcome)))
	c.JSON(http.StatusOK, mutationResponse{Applied: outcome.Applied(), Outcome: outcome, Board: snap})
}

// GetBoard returns the live board of a schedule
func (h *Handler) GetBoard(c *gin.Context) {
	b, err := h.Boards.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b.Snapshot())
}

// Drag applies one drag-and-drop gesture. Rejected gestures are not errors:
// they answer 200 with applied=false and the unchanged board.
func (h *Handler) Drag(c *gin.Context) {
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	d, err := req.drop()
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	var (
		snap    board.Snapshot
		outcome engine.Outcome
	)
	err = h.withBoard(ctx, id, func(b *board.Board) (err error) {
		snap, outcome, err = b.Apply(d, h.commit(ctx, id), h.publish(eventBoard))
		return err
	})
	if err != nil {
		h.fail(c, fmt.Errorf("drag on %s: %w", id, err))
		return
	}
	h.respondMutation(c, snap, outcome)
}

// RemoveEntry deletes one placed entry from a cell
func (h *Handler) RemoveEntry(c *gin.Context) {
	var addr [3]int
	for i, name := range []string{"row", "col", "index"} {
		v, err := strconv.Atoi(c.Param(name))
		if err != nil {
			response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid "+name)
			return
		}
		addr[i] = v
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	var (
		snap    board.Snapshot
		outcome engine.Outcome
	)
	err := h.withBoard(ctx, id, func(b *board.Board) (err error) {
		snap, outcome, err = b.Remove(addr[0], addr[1], addr[2], h.commit(ctx, id), h.publish(eventBoard))
		return err
	})
	if err != nil {
		h.fail(c, fmt.Errorf("remove entry on %s: %w", id, err))
		return
	}
	// the address came from the path, so a cell outside the grid is a bad request
	if outcome == engine.OutOfBounds {
		c.Set(ctxRejected, 1)
		response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Cell out of range",
			fmt.Sprintf("cell %d_%d is outside the grid", addr[0], addr[1]))
		return
	}
	h.respondMutation(c, snap, outcome)
}

// ResetBoard clears every placement and reloads the roster
func (h *Handler) ResetBoard(c *gin.Context) {
	snap, err := h.resetBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ExportBoard renders the board as CSV, one line per grid row. With
// ?format=json the CSV is wrapped in a JSON object.
func (h *Handler) ExportBoard(c *gin.Context) {
	id := c.Param("id")
	b, err := h.Boards.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	out, err := boardCSV(b.Snapshot())
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{"csv": out})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule-%s.csv"`, id))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out))
}

func boardCSV(snap board.Snapshot) (string, error) {
	rows := snap.Grid.Rows()

	width := len(snap.Layout.Columns)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var outCSV strings.Builder
	writer := csv.NewWriter(&outCSV)

	header := []string{"day", "area"}
	for i := 0; i < width; i++ {
		if i < len(snap.Layout.Columns) {
			header = append(header, snap.Layout.Columns[i])
		} else {
			header = append(header, fmt.Sprintf("Session %d", i+1))
		}
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for r, row := range rows {
		record := make([]string, 0, width+2)
		if r < len(snap.Layout.Rows) {
			record = append(record, snap.Layout.Rows[r].Day, snap.Layout.Rows[r].Area)
		} else {
			record = append(record, "", fmt.Sprintf("Row %d", r+1))
		}
		for _, cell := range row {
			record = append(record, cellText(cell, snap))
		}
		for len(record) < width+2 {
			record = append(record, "")
		}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return outCSV.String(), writer.Error()
}

func cellText(cell grid.Cell, snap board.Snapshot) string {
	if cell.IsBlocked {
		return "(blocked)"
	}
	labels := make([]string, len(cell.Entries))
	for i, e := range cell.Entries {
		labels[i] = projector.Label(e, snap.StaffDisplayType)
	}
	return strings.Join(labels, "; ")
}

// BoardSocket streams board changes of a schedule over a websocket
func (h *Handler) BoardSocket(c *gin.Context) {
	id := c.Param("id")
	b, err := h.Boards.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	initial, err := json.Marshal(boardEvent{Type: eventSnapshot, Board: b.Snapshot()})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Hub.ServeWS(c.Writer, c.Request, id, initial)
}
