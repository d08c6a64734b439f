package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-shadow/common"
)

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	frustum    common.ViewFrustum
	controller OrbitController
}

// Camera is a perspective viewpoint. Its ViewFrustum is the reference frustum render tasks
// cull against and derive light frustums from.
type Camera interface {
	// Up returns the camera's up vector.
	Up() [3]float32

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the viewport aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clip distance.
	Near() float32

	// Far returns the far clip distance.
	Far() float32

	// Frustum returns the camera's view frustum. The pointer is stable for the life of the
	// camera; its contents change on Update and on every setter.
	//
	// Returns:
	//   - *common.ViewFrustum: the camera frustum
	Frustum() *common.ViewFrustum

	// Controller returns the controller positioning the camera, or nil.
	Controller() OrbitController

	// Update rebuilds the frustum from the controller's position and target. Without a
	// controller the frustum keeps its last position.
	Update()

	// SetUp sets the camera's up vector.
	SetUp(x, y, z float32)

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float32)

	// SetAspect sets the viewport aspect ratio.
	SetAspect(aspect float32)

	// SetNear sets the near clip distance.
	SetNear(near float32)

	// SetFar sets the far clip distance.
	SetFar(far float32)

	// SetController replaces the controller.
	//
	// Parameters:
	//   - ctrl: the new controller, or nil
	SetController(ctrl OrbitController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera at the origin looking down -Z with a 45 degree field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the new camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    45.0 * (math.Pi / 180.0),
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.frustum.SetPerspective(c.fov, c.aspect, c.near, c.far)
	c.frustum.SetView([3]float32{}, [3]float32{0, 0, -1}, c.up)
	c.updateView()
	return c
}

func (c *cameraImpl) Up() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Frustum() *common.ViewFrustum {
	return &c.frustum
}

func (c *cameraImpl) Controller() OrbitController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateView()
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.updateView()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateProjection()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateProjection()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateProjection()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateProjection()
}

func (c *cameraImpl) SetController(ctrl OrbitController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateView()
}

// updateProjection must be called with the mutex held.
func (c *cameraImpl) updateProjection() {
	c.frustum.SetPerspective(c.fov, c.aspect, c.near, c.far)
}

// updateView must be called with the mutex held.
func (c *cameraImpl) updateView() {
	if c.controller == nil {
		return
	}
	position := c.controller.Position()
	direction := common.Sub3(c.controller.Target(), position)
	if common.Length3(direction) < 1e-8 {
		return
	}
	c.frustum.SetView(position, direction, c.up)
}
