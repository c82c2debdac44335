// Package host drives layout rendering into offscreen bitmaps for a UI shell.
//
// A Host runs one DisplayTask at a time per displayed surface. Every call to
// Display invalidates the previous one: a superseded render sees isCancelled
// return true, its image is discarded and DidDisplay reports finished=false.
// Finished images are kept as the current contents and handed to the consumer
// over Results.
package host

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/ByLCY/scribe/geom"
	"github.com/ByLCY/scribe/layout"
)

// DisplayTask is the set of callbacks for one render.
type DisplayTask struct {
	// WillDisplay 在 Display 调用方的 goroutine 上、绘制开始前调用
	WillDisplay func()
	// Display 绘制内容。异步时在工作 goroutine 上调用，必须并发安全；
	// isCancelled 返回 true 时应尽快返回
	Display func(ctx context.Context, size geom.Size, isCancelled func() bool) image.Image
	// DidDisplay 在绘制结束后调用，被取消时 finished 为 false
	DidDisplay func(img image.Image, finished bool)
}

// Result is one completed display.
type Result struct {
	// Seq 是 Display 调用的序号，从 1 开始
	Seq      uint64
	Image    image.Image
	Finished bool
}

// Options configures a Host.
type Options struct {
	// Size 是内容尺寸（pt），宽或高小于 1 时不绘制
	Size geom.Size
	// Async 是 Display 的默认模式
	Async bool
}

// Host schedules display tasks. Its methods are safe for concurrent use.
type Host struct {
	sentinel atomic.Uint64

	mu       sync.Mutex
	opts     Options
	cancel   context.CancelFunc
	contents image.Image
	closed   bool
	debug    *layout.DebugOption
	last     *DisplayTask

	results chan Result
	wg      sync.WaitGroup
}

var _ layout.DebugTarget = (*Host)(nil)

// New returns a host with the given options.
func New(opts Options) *Host {
	return &Host{opts: opts, results: make(chan Result, 1)}
}

// SetSize changes the content size used by later displays.
func (h *Host) SetSize(size geom.Size) {
	h.mu.Lock()
	h.opts.Size = size
	h.mu.Unlock()
}

// Size returns the content size.
func (h *Host) Size() geom.Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opts.Size
}

// Contents returns the image of the latest finished display, or nil.
func (h *Host) Contents() image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contents
}

// Results delivers finished and cancelled displays. Only the latest undelivered
// result is kept when the consumer falls behind.
func (h *Host) Results() <-chan Result { return h.results }

// SetNeedsDisplay runs task in the default mode.
func (h *Host) SetNeedsDisplay(ctx context.Context, task DisplayTask) {
	h.mu.Lock()
	async := h.opts.Async
	h.mu.Unlock()
	h.Display(ctx, task, async)
}

// Display cancels any running display and starts task. With async=false the task
// runs to completion before Display returns.
func (h *Host) Display(ctx context.Context, task DisplayTask, async bool) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if h.cancel != nil {
		h.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	ctx = context.WithValue(ctx, debugKey{}, h.debug.Clone())
	h.cancel = cancel
	h.last = &task
	size := h.opts.Size
	seq := h.sentinel.Add(1)
	if async {
		h.wg.Add(1)
	}
	h.mu.Unlock()

	if task.WillDisplay != nil {
		task.WillDisplay()
	}
	isCancelled := func() bool { return h.sentinel.Load() != seq || ctx.Err() != nil }

	if !async {
		defer cancel()
		h.run(ctx, seq, task, size, isCancelled)
		return
	}
	go func() {
		defer h.wg.Done()
		defer cancel()
		h.run(ctx, seq, task, size, isCancelled)
	}()
}

func (h *Host) run(ctx context.Context, seq uint64, task DisplayTask, size geom.Size, isCancelled func() bool) {
	if size.W < 1 || size.H < 1 || task.Display == nil {
		h.finish(seq, task, nil, !isCancelled())
		return
	}
	if isCancelled() {
		h.finish(seq, task, nil, false)
		return
	}
	img := task.Display(ctx, size, isCancelled)
	if isCancelled() {
		layout.Logger().Debug("host: display cancelled", "seq", seq)
		h.finish(seq, task, nil, false)
		return
	}
	h.finish(seq, task, img, true)
}

func (h *Host) finish(seq uint64, task DisplayTask, img image.Image, finished bool) {
	if finished {
		h.mu.Lock()
		// 更晚的 Display 已经开始时不覆盖内容
		if h.sentinel.Load() == seq {
			h.contents = img
		}
		h.mu.Unlock()
	}
	if task.DidDisplay != nil {
		task.DidDisplay(img, finished)
	}
	h.publish(Result{Seq: seq, Image: img, Finished: finished})
}

func (h *Host) publish(r Result) {
	for {
		select {
		case h.results <- r:
			return
		default:
		}
		select {
		case <-h.results:
		default:
		}
	}
}

type debugKey struct{}

// DebugOptionFrom returns the debug option of the host display running with ctx.
func DebugOptionFrom(ctx context.Context) *layout.DebugOption {
	o, _ := ctx.Value(debugKey{}).(*layout.DebugOption)
	return o
}

// SetDebugOption implements layout.DebugTarget. A changed option redisplays the
// latest task in the default mode.
func (h *Host) SetDebugOption(o *layout.DebugOption) {
	h.mu.Lock()
	if h.debug.Equal(o) {
		h.mu.Unlock()
		return
	}
	h.debug = o.Clone()
	last, async := h.last, h.opts.Async
	h.mu.Unlock()
	if last != nil {
		h.Display(context.Background(), *last, async)
	}
}

// DebugOption returns a copy of the current debug option.
func (h *Host) DebugOption() *layout.DebugOption {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.debug.Clone()
}

// Cancel invalidates the running display, if any.
func (h *Host) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sentinel.Add(1)
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// Wait blocks until all asynchronous displays have returned.
func (h *Host) Wait() { h.wg.Wait() }

// Close cancels the running display, waits for workers and rejects further displays.
func (h *Host) Close() {
	h.Cancel()
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.wg.Wait()
}
