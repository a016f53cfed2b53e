package game_object

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/input"
	"github.com/Carmen-Shannon/oxy-lite/engine/model"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var objectParam = gpu.RootParameter{Register: 1, Visibility: gpu.ShaderVisibilityAll}

type fixture struct {
	device gpu.HeadlessDevice
	heap   descriptor.Heap
	input  input.Input
	m      Manager
}

func newFixture(t *testing.T, options ...ManagerBuilderOption) *fixture {
	t.Helper()
	adapters := gpu.NewHeadlessInstance().EnumerateAdapters()
	require.NotEmpty(t, adapters)
	d, err := adapters[0].CreateDevice(gpu.FeatureLevel12_0, "test")
	require.NoError(t, err)
	device := d.(gpu.HeadlessDevice)

	heap, err := descriptor.NewHeap(device, descriptor.HeapTypeCBVSRVUAV, 16, true)
	require.NoError(t, err)
	in := input.NewInput()
	m := NewManager(device, heap, objectParam, model.NewShapeContainer(device), in, append([]ManagerBuilderOption{WithWorkers(2)}, options...)...)
	t.Cleanup(m.Clear)
	return &fixture{device: device, heap: heap, input: in, m: m}
}

func (f *fixture) step(t *testing.T) {
	t.Helper()
	f.input.Update()
	require.NoError(t, f.m.Update())
	f.m.PostUpdate()
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Player", KindPlayer.String())
	assert.Equal(t, "Enemy", KindEnemy.String())
	assert.Equal(t, "Bullet", KindBullet.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestObjectConstantsLayout(t *testing.T) {
	c := GPUObjectConstants{Color: [4]float32{0, 0, 1, 0.3}}
	c.World[12] = 2
	assert.Equal(t, 80, c.Size())
	b := c.Marshal()
	require.Len(t, b, 80)
	assert.Equal(t, []byte{0, 0, 0, 0x40}, b[48:52])
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, b[72:76])
}

func TestGameObjectTransform(t *testing.T) {
	obj := newGameObject(1, KindEnemy, NoHandle, enemyBehavior{})
	assert.Equal(t, float32(0.5), obj.Radius())

	obj.Set(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}, mgl32.Vec3{2, 4, 6}, mgl32.Vec4{1, 0, 0, 1}, 0)
	assert.Equal(t, float32(2), obj.Radius())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, common.Translation(obj.World()))

	obj.Translate(mgl32.Vec3{0, 0, 1})
	assert.Equal(t, mgl32.Vec3{1, 2, 4}, obj.Position())
	c := obj.Constants()
	assert.Equal(t, [4]float32{1, 0, 0, 1}, c.Color)
	assert.Equal(t, float32(4), c.World[14])
}

func TestCreateQueuesUntilUpdate(t *testing.T) {
	f := newFixture(t)

	player := f.m.Create(KindPlayer, NoHandle)
	enemy := f.m.Create(KindEnemy, NoHandle)
	assert.Equal(t, Handle(1), player)
	assert.Equal(t, Handle(2), enemy)
	assert.Equal(t, 0, f.m.Len())
	assert.Equal(t, 2, f.m.Pending())

	obj, ok := f.m.Object(player)
	require.True(t, ok)
	assert.Equal(t, KindPlayer, obj.Kind())
	_, ok = f.m.Object(99)
	assert.False(t, ok)

	f.step(t)
	assert.Equal(t, 2, f.m.Len())
	assert.Equal(t, 0, f.m.Pending())
	assert.Equal(t, uint64(1), f.m.Frame())
	assert.Equal(t, 2, f.heap.Allocated())

	objects := f.m.Objects()
	require.Len(t, objects, 2)
	assert.Equal(t, player, objects[0].Handle())
	assert.Equal(t, mgl32.Vec3{-0.2, 0, 0.1}, objects[0].Position())
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 1}, objects[0].Color())
	assert.Equal(t, mgl32.Vec3{0, 0, 30}, objects[1].Position())
	assert.Equal(t, float32(3.5), objects[1].Radius())
}

func TestPlayerMovesAndFires(t *testing.T) {
	f := newFixture(t)
	player := f.m.Create(KindPlayer, NoHandle)

	f.input.KeyDown(common.KeyW)
	f.input.KeyDown(common.KeyD)
	f.input.KeyDown(common.KeyB)
	f.step(t)

	obj, ok := f.m.Object(player)
	require.True(t, ok)
	assert.InDelta(t, 0.15, obj.Position().Z(), 1e-6)
	assert.InDelta(t, -0.15, obj.Position().X(), 1e-6)
	require.Equal(t, 1, f.m.Pending())

	// B stays held, so no second bullet
	f.input.KeyUp(common.KeyW)
	f.input.KeyUp(common.KeyD)
	f.step(t)
	assert.Equal(t, 2, f.m.Len())
	assert.Equal(t, 0, f.m.Pending())

	bullet, ok := f.m.Object(Handle(2))
	require.True(t, ok)
	assert.Equal(t, KindBullet, bullet.Kind())
	assert.Equal(t, player, bullet.Parent())
	assert.InDelta(t, -0.15, bullet.Position().X(), 1e-6)
	assert.InDelta(t, 0.15+0.3, bullet.Position().Z(), 1e-6)
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 0.3}, bullet.Color())

	f.input.KeyUp(common.KeyB)
	f.step(t)
	f.input.KeyDown(common.KeyB)
	f.step(t)
	assert.Equal(t, 1, f.m.Pending())
}

func TestBulletHitTintsEnemyAndIsReleasedAfterDelay(t *testing.T) {
	f := newFixture(t)
	enemy := f.m.Create(KindEnemy, NoHandle)
	f.m.Create(KindBullet, 42)

	frames := 0
	for f.m.Len() != 1 && frames < 200 {
		f.step(t)
		frames++
	}
	require.Equal(t, 1, f.m.Len(), "bullet never hit")
	// the bullet starts at the origin and touches the enemy once it is within 4 units of z=30
	assert.Equal(t, 87, frames)

	obj, ok := f.m.Object(enemy)
	require.True(t, ok)
	color := obj.Color()
	assert.InDeltaSlice(t, []float32{1, 0.95, 0.95, 1}, color[:], 1e-6)

	assert.Equal(t, 1, f.m.Deleting())
	assert.Equal(t, 2, f.heap.Allocated())
	for range 9 {
		f.step(t)
	}
	assert.Equal(t, 1, f.m.Deleting())
	assert.Equal(t, 0, f.heap.Pending())

	f.step(t)
	assert.Equal(t, 0, f.m.Deleting())
	assert.Equal(t, 1, f.heap.Allocated())
	assert.Equal(t, 1, f.heap.Pending())
}

func TestBulletRetiredPastRange(t *testing.T) {
	f := newFixture(t, WithDeleteDelay(0))
	f.m.Create(KindBullet, NoHandle)

	frames := 0
	for frames == 0 || f.m.Len() > 0 && frames < 400 {
		f.step(t)
		frames++
	}
	assert.Equal(t, 0, f.m.Len())
	assert.InDelta(t, 334, frames, 1)
	assert.Equal(t, 0, f.m.Deleting())
}

func TestDeleteOfPendingObjectIgnored(t *testing.T) {
	f := newFixture(t)
	h := f.m.Create(KindEnemy, NoHandle)
	f.m.RegisterDelete(h)
	f.step(t)
	assert.Equal(t, 1, f.m.Len())

	f.m.RegisterDelete(h)
	assert.Equal(t, 0, f.m.Len())
	_, ok := f.m.Object(h)
	assert.False(t, ok)
	f.m.RegisterDelete(h)
	assert.Equal(t, 1, f.m.Deleting())
}

func TestDrawRecordsOneTablePerObject(t *testing.T) {
	f := newFixture(t)
	f.m.Create(KindPlayer, NoHandle)
	f.m.Create(KindEnemy, NoHandle)
	f.step(t)

	list := command.NewList(descriptor.NewContainer(f.device))
	alloc := command.NewAllocator(f.device, "Test Allocator")
	require.NoError(t, alloc.Reset(0))
	require.NoError(t, list.Reset(alloc, nil))
	list.SetDescriptorHeaps(f.heap)
	require.NoError(t, f.m.Draw(list, 1))
	require.NoError(t, list.Close())
	require.NoError(t, command.NewQueue(f.device).Execute(list))

	var ops []gpu.CommandOp
	var slots []uint32
	var draws []uint32
	for _, cmd := range f.device.Timeline() {
		ops = append(ops, cmd.Op)
		switch cmd.Op {
		case gpu.OpSetDescriptorTable:
			slots = append(slots, cmd.Slot)
		case gpu.OpDrawIndexed:
			draws = append(draws, cmd.Count)
		}
	}
	perObject := []gpu.CommandOp{
		gpu.OpSetDescriptorTable, gpu.OpSetPrimitiveTopology, gpu.OpSetVertexBuffer, gpu.OpSetIndexBuffer, gpu.OpDrawIndexed,
	}
	assert.Equal(t, append(append([]gpu.CommandOp{}, perObject...), perObject...), ops)
	assert.Equal(t, []uint32{1, 1}, slots)
	assert.Equal(t, []uint32{4, 3}, draws)

	player := f.m.(*manager).live[1]
	data, err := player.drawBuffer.Map()
	require.NoError(t, err)
	c := player.Constants()
	assert.Equal(t, c.Marshal(), data[:c.Size()])
	require.NoError(t, player.drawBuffer.Unmap())
}

func TestClearReleasesEverything(t *testing.T) {
	f := newFixture(t)
	f.m.Create(KindPlayer, NoHandle)
	h := f.m.Create(KindEnemy, NoHandle)
	f.step(t)
	f.m.RegisterDelete(h)
	f.m.Create(KindBullet, 1)

	f.m.Clear()
	assert.Equal(t, 0, f.m.Len())
	assert.Equal(t, 0, f.m.Pending())
	assert.Equal(t, 0, f.m.Deleting())
	assert.Equal(t, 0, f.heap.Allocated())
	assert.Equal(t, 2, f.heap.Pending())
}

func TestDrawCullsOutsideFrustum(t *testing.T) {
	// a box around the origin reaching 5 units along every axis
	var box common.Frustum
	for i, n := range []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}} {
		box.Planes[i] = common.Plane{Normal: n, Distance: 5}
	}
	f := newFixture(t, WithFrustum(func() common.Frustum { return box }))
	f.m.Create(KindPlayer, NoHandle)
	f.m.Create(KindEnemy, NoHandle)
	f.step(t)

	list := command.NewList(descriptor.NewContainer(f.device))
	alloc := command.NewAllocator(f.device, "Test Allocator")
	require.NoError(t, alloc.Reset(0))
	require.NoError(t, list.Reset(alloc, nil))
	list.SetDescriptorHeaps(f.heap)
	require.NoError(t, f.m.Draw(list, 1))
	require.NoError(t, list.Close())
	require.NoError(t, command.NewQueue(f.device).Execute(list))

	assert.Equal(t, 1, f.m.Culled())
	draws := 0
	for _, cmd := range f.device.Timeline() {
		if cmd.Op == gpu.OpDrawIndexed {
			draws++
			assert.Equal(t, uint32(4), cmd.Count)
		}
	}
	assert.Equal(t, 1, draws)
}
