package game_object

import (
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/input"
	"github.com/Carmen-Shannon/oxy-lite/engine/model"
	"github.com/Carmen-Shannon/oxy-lite/engine/reclaim"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

// DefaultDeleteDelay is the number of frames a deleted object's resources are held for.
const DefaultDeleteDelay uint64 = 10

type manager struct {
	device gpu.Device
	heap   descriptor.Heap
	param  gpu.RootParameter
	ctx    *Context

	counter uint64
	frame   uint64
	pending []*gameObject
	live    map[Handle]*gameObject
	hits    []Handle

	deleteDelay uint64
	deleteQueue reclaim.DelayQueue[*gameObject]

	workers int
	pool    worker.DynamicWorkerPool
	frustum func() common.Frustum
	culled  int
	logger  *slog.Logger
}

// Manager owns every game object: creation, per-frame update, hit testing, drawing and delayed deletion.
// A Manager is driven from the frame loop goroutine only; constant buffer writes inside Draw are fanned out
// to a worker pool.
type Manager interface {
	Registry

	// Update activates the objects created since the last call, then updates every live object in handle order.
	// Objects deleted during the pass are skipped. Objects created during the pass are activated next frame.
	//
	// Returns:
	//   - error: a fatal error raised while allocating an object's constant buffer
	Update() error

	// PostUpdate resolves the hits registered this frame, releases objects whose delete delay has elapsed
	// and advances the frame counter.
	PostUpdate()

	// Draw writes every live object's constants and records one draw per object, binding its constant
	// buffer at the given root parameter slot. Objects whose buffer cannot be mapped are skipped, as are
	// objects whose bounding sphere lies outside the view frustum when one is configured.
	//
	// Parameters:
	//   - list: the recording command list
	//   - slot: the per-object root parameter slot
	//
	// Returns:
	//   - error: a fatal error from a constant buffer or a shape draw
	Draw(list command.List, slot uint32) error

	// Objects returns the live objects in handle order.
	Objects() []GameObject

	// Len returns the number of live objects.
	Len() int

	// Pending returns the number of objects waiting for activation.
	Pending() int

	// Deleting returns the number of deleted objects still holding resources.
	Deleting() int

	// Frame returns the frame counter advanced by PostUpdate.
	Frame() uint64

	// Culled returns the number of objects the last Draw skipped as outside the view frustum.
	Culled() int

	// Clear releases every object immediately, including those waiting out their delete delay.
	// The caller must have waited for the GPU to go idle.
	Clear()
}

var _ Manager = &manager{}

// NewManager creates an empty Manager.
//
// Parameters:
//   - device: the device constant buffers are created on
//   - heap: the shader-visible CBV heap object descriptors are allocated from
//   - param: the root parameter per-object constant buffers are bound to
//   - shapes: the shape container objects draw from
//   - in: the keyboard state behaviors read
//   - options: functional options
//
// Returns:
//   - Manager: the new manager
func NewManager(device gpu.Device, heap descriptor.Heap, param gpu.RootParameter, shapes model.ShapeContainer, in input.Input, options ...ManagerBuilderOption) Manager {
	m := &manager{
		device:      device,
		heap:        heap,
		param:       param,
		live:        make(map[Handle]*gameObject),
		deleteDelay: DefaultDeleteDelay,
		workers:     runtime.NumCPU(),
		logger:      slog.Default(),
	}
	for _, opt := range options {
		opt(m)
	}
	m.deleteQueue = reclaim.NewDelayQueue[*gameObject](m.deleteDelay)
	m.pool = worker.NewDynamicWorkerPool(m.workers, 256, 1*time.Second)
	m.ctx = &Context{
		Input:   in,
		Shapes:  shapes,
		Objects: m,
		Logger:  m.logger,
	}
	return m
}

func (m *manager) Create(kind Kind, parent Handle) Handle {
	m.counter++
	h := Handle(m.counter)
	b, ok := BehaviorOf(kind)
	if !ok {
		m.logger.Error("create of unknown object kind dropped", "kind", kind, "handle", h)
		return h
	}
	m.pending = append(m.pending, newGameObject(h, kind, parent, b))
	return h
}

func (m *manager) RegisterHit(h Handle) {
	m.hits = append(m.hits, h)
}

func (m *manager) RegisterDelete(h Handle) {
	obj, ok := m.live[h]
	if !ok {
		m.logger.Debug("delete of object that is not live ignored", "handle", h)
		return
	}
	delete(m.live, h)
	m.deleteQueue.Push(m.frame, obj)
}

func (m *manager) Object(h Handle) (GameObject, bool) {
	if obj, ok := m.live[h]; ok {
		return obj, true
	}
	for _, obj := range m.pending {
		if obj.handle == h {
			return obj, true
		}
	}
	return nil, false
}

func (m *manager) Update() error {
	pending := m.pending
	m.pending = nil
	for i, obj := range pending {
		if err := m.activate(obj); err != nil {
			// the rest stay queued for the next frame
			m.pending = append(pending[i+1:], m.pending...)
			return err
		}
	}

	for _, h := range m.handles() {
		obj, ok := m.live[h]
		if !ok {
			continue
		}
		obj.behavior.Update(m.ctx, obj)
	}
	return nil
}

// activate initializes a pending object and gives it a constant buffer. Non-fatal failures drop or
// degrade the object and are only logged.
func (m *manager) activate(obj *gameObject) error {
	if err := obj.behavior.Initialize(m.ctx, obj); err != nil {
		if common.IsFatal(err) {
			return errors.Wrapf(err, "initialize %s %d", obj.kind, obj.handle)
		}
		m.logger.Warn("object dropped, initialize failed", "kind", obj.kind, "handle", obj.handle, "error", err)
		return nil
	}

	c := obj.Constants()
	cb, err := buffer.NewConstantBuffer(m.device, m.heap, m.param, uint64(c.Size()),
		buffer.WithLabel(fmt.Sprintf("%s %d Constants", obj.kind, obj.handle)))
	switch {
	case err == nil:
		obj.drawBuffer = cb
	case common.IsFatal(err):
		return errors.Wrapf(err, "constant buffer for %s %d", obj.kind, obj.handle)
	default:
		m.logger.Warn("object has no constant buffer and will not be drawn", "kind", obj.kind, "handle", obj.handle, "error", err)
	}
	m.live[obj.handle] = obj
	m.logger.Debug("object created", "kind", obj.kind, "handle", obj.handle, "parent", obj.parent)
	return nil
}

func (m *manager) PostUpdate() {
	hits := m.hits
	m.hits = nil
	seen := make(map[Handle]bool, len(hits))
	handles := m.handles()
	for _, h := range hits {
		if seen[h] {
			continue
		}
		seen[h] = true
		m.resolveHits(h, handles)
	}

	m.deleteQueue.Reclaim(m.frame, m.release)
	m.frame++
}

// resolveHits tests one registrant against every live object of its target kind. Testing stops once the
// registrant leaves the live set.
func (m *manager) resolveHits(h Handle, handles []Handle) {
	obj, ok := m.live[h]
	if !ok {
		return
	}
	target, ok := obj.behavior.HitTargetKind()
	if !ok {
		return
	}
	for _, oh := range handles {
		if oh == h {
			continue
		}
		other, ok := m.live[oh]
		if !ok || other.kind != target {
			continue
		}
		if obj.Position().Sub(other.Position()).Len() >= obj.Radius()+other.Radius() {
			continue
		}
		obj.behavior.OnHit(m.ctx, obj, other)
		other.behavior.OnHit(m.ctx, other, obj)
		if _, ok := m.live[h]; !ok {
			return
		}
	}
}

func (m *manager) release(obj *gameObject) {
	if err := obj.release(); err != nil {
		m.logger.Warn("release of deleted object failed", "kind", obj.kind, "handle", obj.handle, "error", err)
		return
	}
	m.logger.Debug("object released", "kind", obj.kind, "handle", obj.handle)
}

func (m *manager) Draw(list command.List, slot uint32) error {
	var frustum *common.Frustum
	if m.frustum != nil {
		f := m.frustum()
		frustum = &f
	}
	m.culled = 0
	objects := make([]*gameObject, 0, len(m.live))
	for _, h := range m.handles() {
		obj := m.live[h]
		if obj.drawBuffer == nil {
			continue
		}
		if frustum != nil && !frustum.IntersectsSphere(obj.Position(), obj.Radius()) {
			m.culled++
			continue
		}
		objects = append(objects, obj)
	}

	// Constant buffer writes are independent per object; the WaitGroup is the frame barrier.
	errs := make([]error, len(objects))
	var wg sync.WaitGroup
	for i, obj := range objects {
		wg.Add(1)
		m.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				errs[i] = obj.updateDrawBuffer()
				return nil, errs[i]
			},
		})
	}
	wg.Wait()

	for i, obj := range objects {
		if err := errs[i]; err != nil {
			if common.IsFatal(err) {
				return errors.Wrapf(err, "update constants of %s %d", obj.kind, obj.handle)
			}
			m.logger.Warn("object skipped, constants not written", "kind", obj.kind, "handle", obj.handle, "error", err)
			continue
		}
		handle, err := obj.drawBuffer.Handle()
		if err != nil {
			return errors.Wrapf(err, "descriptor of %s %d", obj.kind, obj.handle)
		}
		list.SetDescriptorTable(slot, handle)
		if err := m.ctx.Shapes.Draw(list, obj.shape); err != nil {
			return errors.Wrapf(err, "draw %s %d", obj.kind, obj.handle)
		}
	}
	return nil
}

func (m *manager) Objects() []GameObject {
	out := make([]GameObject, 0, len(m.live))
	for _, h := range m.handles() {
		out = append(out, m.live[h])
	}
	return out
}

func (m *manager) Len() int {
	return len(m.live)
}

func (m *manager) Pending() int {
	return len(m.pending)
}

func (m *manager) Deleting() int {
	return m.deleteQueue.Len()
}

func (m *manager) Frame() uint64 {
	return m.frame
}

func (m *manager) Culled() int {
	return m.culled
}

func (m *manager) Clear() {
	for _, h := range m.handles() {
		m.release(m.live[h])
		delete(m.live, h)
	}
	m.deleteQueue.Drain(m.release)
	m.pending = nil
	m.hits = nil
}

// handles returns the live handles in ascending order.
func (m *manager) handles() []Handle {
	return slices.Sorted(maps.Keys(m.live))
}
