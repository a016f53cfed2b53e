package gpu

// Instance is the entry point of a backend. It enumerates the physical adapters the backend can drive.
type Instance interface {
	// EnumerateAdapters lists the physical adapters in backend order.
	//
	// Returns:
	//   - []Adapter: the adapters, possibly empty
	EnumerateAdapters() []Adapter

	// Release frees the instance and any surface it owns.
	Release()
}

// Adapter is a physical GPU (or a software rasterizer) that can host a logical device.
type Adapter interface {
	// Info returns the adapter's identification.
	//
	// Returns:
	//   - AdapterInfo: name, vendor, backend and whether the adapter is a software implementation
	Info() AdapterInfo

	// SupportsFeatureLevel probes whether the adapter meets the given capability tier.
	//
	// Parameters:
	//   - level: the tier to probe
	//
	// Returns:
	//   - bool: true if a device could be created at that tier
	SupportsFeatureLevel(level FeatureLevel) bool

	// CreateDevice creates the logical device at the given tier.
	//
	// Parameters:
	//   - level: the tier to create the device at
	//   - label: a debug label
	//
	// Returns:
	//   - Device: the logical device
	//   - error: an error if creation fails
	CreateDevice(level FeatureLevel, label string) (Device, error)
}

// Device is the logical device. All GPU objects are created through it.
type Device interface {
	// Queue returns the single direct command queue of the device.
	//
	// Returns:
	//   - Queue: the device queue
	Queue() Queue

	// DescriptorIncrement returns the handle stride between consecutive descriptors of a kind.
	// The value is device specific.
	//
	// Parameters:
	//   - kind: the descriptor kind
	//
	// Returns:
	//   - uint32: the stride in bytes
	DescriptorIncrement(kind DescriptorKind) uint32

	// MaxDescriptors returns the largest heap the device accepts for a kind.
	//
	// Parameters:
	//   - kind: the descriptor kind
	//
	// Returns:
	//   - int: the maximum descriptor count
	MaxDescriptors(kind DescriptorKind) int

	// CreateSwapChain creates the swap chain for the surface the instance was created with.
	//
	// Parameters:
	//   - desc: size, buffer count, format and vsync preference
	//
	// Returns:
	//   - SwapChain: the swap chain
	//   - error: an error if the surface cannot be configured
	CreateSwapChain(desc SwapChainDesc) (SwapChain, error)

	// CreateTexture creates a device-local texture. The texture starts in ResourceStateDepthWrite.
	//
	// Parameters:
	//   - desc: size and format
	//
	// Returns:
	//   - Texture: the texture
	//   - error: an error if creation fails
	CreateTexture(desc TextureDesc) (Texture, error)

	// CreateRenderTargetView creates a render-target descriptor for a texture or back buffer.
	CreateRenderTargetView(tex Texture) (Descriptor, error)

	// CreateDepthStencilView creates a depth-stencil descriptor for a depth texture.
	CreateDepthStencilView(tex Texture) (Descriptor, error)

	// CreateBuffer creates a CPU-writable upload buffer of at least desc.Size bytes.
	//
	// Parameters:
	//   - desc: size and usage
	//
	// Returns:
	//   - Buffer: the buffer
	//   - error: an error if creation fails
	CreateBuffer(desc BufferDesc) (Buffer, error)

	// CreateConstantBufferView creates a descriptor binding buf to the register described by param.
	//
	// Parameters:
	//   - buf: a buffer created with BufferUsageConstant
	//   - param: the root parameter the descriptor will be bound through
	//
	// Returns:
	//   - Descriptor: the constant buffer descriptor
	//   - error: an error if creation fails
	CreateConstantBufferView(buf Buffer, param RootParameter) (Descriptor, error)

	// CreateShaderModule creates a shader module from validated source.
	CreateShaderModule(label, source string) (ShaderModule, error)

	// CreateRootSignature creates a binding layout.
	CreateRootSignature(desc RootSignatureDesc) (RootSignature, error)

	// CreatePipelineState creates an immutable pipeline state object.
	CreatePipelineState(desc PipelineStateDesc) (PipelineState, error)

	// CreateCommandEncoder creates an encoder that records one command buffer.
	//
	// Parameters:
	//   - label: a debug label
	//
	// Returns:
	//   - CommandEncoder: the encoder
	//   - error: an error if creation fails
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Poll lets the device make progress on submitted work and fire completion callbacks.
	//
	// Parameters:
	//   - wait: block until the queue is idle
	Poll(wait bool)

	// Release destroys the device.
	Release()
}

// Queue executes command buffers in submission order.
type Queue interface {
	// Submit hands command buffers to the GPU.
	//
	// Parameters:
	//   - buffers: the command buffers, executed in order
	//
	// Returns:
	//   - error: ErrDeviceLost if the device can no longer execute work
	Submit(buffers ...CommandBuffer) error

	// OnSubmittedWorkDone registers fn to run once all work submitted so far has completed.
	// fn may run on another goroutine or from within Device.Poll.
	//
	// Parameters:
	//   - fn: the completion callback
	OnSubmittedWorkDone(fn func())
}

// SwapChain owns the back buffers presented to the window.
type SwapChain interface {
	// BufferCount returns the number of back buffers.
	BufferCount() int

	// CurrentBackBufferIndex returns the index of the back buffer the next frame renders into.
	CurrentBackBufferIndex() int

	// BackBuffer returns the back buffer texture at index.
	//
	// Parameters:
	//   - index: a back buffer index in [0, BufferCount)
	//
	// Returns:
	//   - Texture: the back buffer
	//   - error: an error if index is out of range
	BackBuffer(index int) (Texture, error)

	// Present shows the current back buffer and advances the index.
	//
	// Parameters:
	//   - syncInterval: 0 presents immediately, 1 waits for vertical blank
	//
	// Returns:
	//   - error: ErrDeviceLost if the surface is gone
	Present(syncInterval int) error

	// Resize reconfigures the back buffers for a new window size.
	Resize(width, height uint32) error

	// Format returns the back buffer format.
	Format() TextureFormat

	// Release frees the swap chain.
	Release()
}

// Texture is a GPU texture.
type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	Format() TextureFormat
	Release()
}

// Buffer is a CPU-writable upload buffer. The bytes returned by Map stay valid until Unmap.
type Buffer interface {
	// Size returns the allocated size in bytes.
	Size() uint64

	// Map returns the CPU view of the buffer.
	//
	// Returns:
	//   - []byte: the mapped bytes, len == Size()
	//   - error: an error if the buffer is released or already mapped
	Map() ([]byte, error)

	// Unmap publishes the mapped bytes to the GPU.
	//
	// Returns:
	//   - error: an error if the buffer is not mapped
	Unmap() error

	// Release frees the buffer.
	Release()
}

// Descriptor is the content of one descriptor heap slot.
type Descriptor interface {
	Kind() DescriptorKind
	Release()
}

// ShaderModule is a compiled shader module.
type ShaderModule interface {
	Release()
}

// RootSignature is an immutable binding layout.
type RootSignature interface {
	Parameters() []RootParameter
	Release()
}

// PipelineState is an immutable pipeline state object.
type PipelineState interface {
	Release()
}

// CommandBuffer is a finished, submittable recording.
type CommandBuffer interface {
	Release()
}

// CommandEncoder records GPU commands for one command buffer. Ordering and state validation
// are the caller's responsibility; the encoder only translates.
type CommandEncoder interface {
	Barrier(tex Texture, before, after ResourceState)
	SetRenderTargets(rtv, dsv Descriptor)
	ClearRenderTarget(rtv Descriptor, rgba [4]float64)
	ClearDepth(dsv Descriptor, depth float32)
	SetRootSignature(rs RootSignature)
	SetViewport(v Viewport)
	SetScissorRect(r Rect)
	SetPipelineState(pso PipelineState)
	SetDescriptorTable(slot uint32, d Descriptor)
	SetPrimitiveTopology(t PrimitiveTopology)
	SetVertexBuffer(v VertexBufferView)
	SetIndexBuffer(v IndexBufferView)
	DrawIndexed(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32)

	// Finish ends recording and returns the command buffer.
	//
	// Returns:
	//   - CommandBuffer: the recorded commands
	//   - error: an error if recording was invalid
	Finish() (CommandBuffer, error)

	// Release drops an encoder that will not be finished.
	Release()
}
