// Package nodeview implements the interactive behaviors attached to
// individual nodes: drag resizing for media, inline attribute editors, and
// link card insertion backed by metadata resolution.
package nodeview

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/editor"
	"github.com/starford/laguz/internal/schema"
)

// MinDimension is the smallest width or height a resize can produce.
const MinDimension = 50

// SelectionLock keeps a node selected for the duration of a gesture so the
// selection cannot drift away mid-drag. Release must be idempotent.
type SelectionLock interface {
	Lock(nodeID string)
	Release(nodeID string)
}

// viewStateLock marks the node as gesture-locked in the view state table.
type viewStateLock struct {
	view *editor.ViewState
}

// NewViewStateLock returns a SelectionLock recording the lock in the
// editor's view state.
func NewViewStateLock(view *editor.ViewState) SelectionLock {
	return &viewStateLock{view: view}
}

func (l *viewStateLock) Lock(nodeID string)    { l.view.Set(nodeID, "gestureLock", true) }
func (l *viewStateLock) Release(nodeID string) { l.view.Delete(nodeID, "gestureLock") }

// ResizeController runs one resize gesture over a media node. Dimensions
// move live with the pointer but the document is written exactly once, on
// End; Move never dispatches. Abort and teardown release through the same
// path as End, so the selection lock cannot leak.
type ResizeController struct {
	mu         sync.Mutex
	dispatcher *editor.Dispatcher
	lock       SelectionLock

	active     bool
	nodeID     string
	startW     int
	startH     int
	startX     int
	startY     int
	curW       int
	curH       int
	keepAspect bool
}

// NewResizeController creates a controller bound to the dispatcher.
func NewResizeController(d *editor.Dispatcher, lock SelectionLock) *ResizeController {
	return &ResizeController{dispatcher: d, lock: lock}
}

// Start begins a gesture on the node, capturing its current box and the
// pointer origin. A gesture already in flight is aborted first.
func (rc *ResizeController) Start(nodeID string, width, height, pointerX, pointerY int, keepAspect bool) error {
	rc.Abort()

	rc.mu.Lock()
	defer rc.mu.Unlock()
	n := rc.dispatcher.Document().FindByID(nodeID)
	if n == nil {
		return fmt.Errorf("resize start: %w", apperr.ErrNotFound)
	}
	rc.active = true
	rc.nodeID = nodeID
	rc.startW, rc.startH = width, height
	rc.curW, rc.curH = width, height
	rc.startX, rc.startY = pointerX, pointerY
	rc.keepAspect = keepAspect
	if rc.lock != nil {
		rc.lock.Lock(nodeID)
	}
	return nil
}

// Move updates the in-flight dimensions from the pointer position. With
// aspect locked, the axis the pointer moved further on drives and the
// other follows the start ratio. Both axes clamp at MinDimension. Nothing
// is dispatched; the returned box is for live preview only.
func (rc *ResizeController) Move(pointerX, pointerY int) (width, height int, ok bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !rc.active {
		return 0, 0, false
	}
	dx := pointerX - rc.startX
	dy := pointerY - rc.startY

	w := rc.startW + dx
	h := rc.startH + dy
	if rc.keepAspect && rc.startW > 0 && rc.startH > 0 {
		if abs(dx) >= abs(dy) {
			h = w * rc.startH / rc.startW
		} else {
			w = h * rc.startW / rc.startH
		}
	}
	if w < MinDimension {
		w = MinDimension
	}
	if h < MinDimension {
		h = MinDimension
	}
	rc.curW, rc.curH = w, h
	return w, h, true
}

// End commits the final dimensions to the node and finishes the gesture.
// A gesture that never moved still writes its starting box back, which is
// a harmless identity edit.
func (rc *ResizeController) End() error {
	rc.mu.Lock()
	if !rc.active {
		rc.mu.Unlock()
		return nil
	}
	nodeID, w, h := rc.nodeID, rc.curW, rc.curH
	rc.finishLocked()
	rc.mu.Unlock()

	return rc.dispatcher.Dispatch(editor.SetAttrs{
		NodeID: nodeID,
		Attrs: schema.Attrs{
			"width":  strconv.Itoa(w) + "px",
			"height": strconv.Itoa(h) + "px",
		},
	})
}

// Abort finishes the gesture without touching the document.
func (rc *ResizeController) Abort() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.active {
		rc.finishLocked()
	}
}

// Active reports whether a gesture is in flight.
func (rc *ResizeController) Active() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.active
}

// finishLocked is the single release path: every way out of a gesture goes
// through here.
func (rc *ResizeController) finishLocked() {
	if rc.lock != nil {
		rc.lock.Release(rc.nodeID)
	}
	rc.active = false
	rc.nodeID = ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
