package camera

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// orbitState is a point in orbit space: a pivot plus spherical coordinates around it.
type orbitState struct {
	target    mgl32.Vec3
	radius    float32
	azimuth   float32 // horizontal angle around Y, 0 = +Z
	elevation float32 // vertical angle from the horizontal plane
}

// ease moves s toward goal by factor k in [0, 1].
func (s *orbitState) ease(goal orbitState, k float32) {
	s.target = s.target.Add(goal.target.Sub(s.target).Mul(k))
	s.radius += (goal.radius - s.radius) * k
	s.azimuth += (goal.azimuth - s.azimuth) * k
	s.elevation += (goal.elevation - s.elevation) * k
}

// cameraControllerImpl is the single implementation of CameraController.
// Supports both orbit and planar controls simultaneously. Input methods edit the goal
// orbit; Update eases the current orbit toward it and recomputes the position.
type cameraControllerImpl struct {
	mu *sync.Mutex

	current  orbitState
	goal     orbitState
	position mgl32.Vec3

	damping float32

	// Orbit constraints
	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	// Orbit speed settings
	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32

	// Planar speed
	panSpeed float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a damped orbit controller two units in front of the origin.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu: &sync.Mutex{},
		goal: orbitState{
			radius: 2.0,
		},

		damping: 3.0,

		minRadius:    0.5,
		maxRadius:    10.0,
		minElevation: -math32.Pi/2 + 0.01,
		maxElevation: math32.Pi/2 - 0.01,

		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        0.25,

		panSpeed: 0.01,
	}

	for _, option := range options {
		option(cc)
	}

	cc.clampGoal()
	cc.current = cc.goal
	cc.updatePosition()
	return cc
}

// NewOrbitController creates a new camera controller configured for orbit-style control.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	return NewCameraController(options...)
}

// --- internal helpers ---

// clampGoal keeps the goal radius and elevation inside their bounds.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) clampGoal() {
	cc.goal.radius = max(cc.minRadius, min(cc.maxRadius, cc.goal.radius))
	cc.goal.elevation = max(cc.minElevation, min(cc.maxElevation, cc.goal.elevation))
}

// updatePosition recomputes the camera position from the current spherical coordinates.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	s := cc.current
	cosElev, sinElev := math32.Cos(s.elevation), math32.Sin(s.elevation)
	cosAzim, sinAzim := math32.Cos(s.azimuth), math32.Sin(s.azimuth)
	cc.position = s.target.Add(mgl32.Vec3{
		s.radius * cosElev * sinAzim,
		s.radius * sinElev,
		s.radius * cosElev * cosAzim,
	})
}

// localAxes computes the camera's local right, up and forward axes consistent with the
// LookAt matrix. All axes are zero when position and target coincide.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) localAxes() (right, up, forward mgl32.Vec3) {
	backward := cc.position.Sub(cc.current.target)
	if backward.Len() < 1e-8 {
		return
	}
	backward = backward.Normalize()

	right = mgl32.Vec3{0, 1, 0}.Cross(backward)
	if right.Len() < 1e-8 {
		return mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{}
	}
	right = right.Normalize()
	up = backward.Cross(right)
	forward = backward.Mul(-1)
	return
}

// pan shifts the goal pivot; the orbit around it is unchanged.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) pan(axis mgl32.Vec3, delta float32) {
	cc.goal.target = cc.goal.target.Add(axis.Mul(delta * cc.panSpeed))
}

// --- CameraController shared methods ---

func (cc *cameraControllerImpl) Update(dt float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	k := float32(1)
	if cc.damping > 0 {
		k = 1 - math32.Exp(-cc.damping*float32(dt)/1000)
	}
	cc.current.ease(cc.goal, k)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Damping() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.damping
}

func (cc *cameraControllerImpl) SetDamping(damping float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.damping = max(damping, 0)
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	offset := mgl32.Vec3{x, y, z}.Sub(cc.current.target)
	r := offset.Len()
	if r < 1e-8 {
		return
	}
	cc.goal.target = cc.current.target
	cc.goal.radius = r
	cc.goal.elevation = math32.Asin(offset[1] / r)
	cc.goal.azimuth = math32.Atan2(offset[0], offset[2])
	cc.clampGoal()
	cc.current = cc.goal
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.current.target[0], cc.current.target[1], cc.current.target[2]
}

func (cc *cameraControllerImpl) SetTarget(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.target = mgl32.Vec3{x, y, z}
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.radius -= delta * cc.zoomSpeed
	cc.clampGoal()
}

// --- orbitCameraController implementation ---

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.azimuth -= cc.orbitSpeed
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.azimuth += cc.orbitSpeed
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.elevation += cc.orbitSpeed
	cc.clampGoal()
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.elevation -= cc.orbitSpeed
	cc.clampGoal()
}

func (cc *cameraControllerImpl) Orbit(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.azimuth -= dx * cc.mouseSensitivity
	cc.goal.elevation += dy * cc.mouseSensitivity
	cc.clampGoal()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.current.radius
}

func (cc *cameraControllerImpl) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.radius = radius
	cc.clampGoal()
}

func (cc *cameraControllerImpl) MinRadius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minRadius
}

func (cc *cameraControllerImpl) MaxRadius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxRadius
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.current.azimuth
}

func (cc *cameraControllerImpl) SetAzimuth(azimuth float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.azimuth = azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.current.elevation
}

func (cc *cameraControllerImpl) SetElevation(elevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.goal.elevation = elevation
	cc.clampGoal()
}

func (cc *cameraControllerImpl) MinElevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minElevation
}

func (cc *cameraControllerImpl) MaxElevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxElevation
}

func (cc *cameraControllerImpl) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

// --- planarCameraController implementation ---

func (cc *cameraControllerImpl) PanRight(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	right, _, _ := cc.localAxes()
	cc.pan(right, delta)
}

func (cc *cameraControllerImpl) PanUp(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, up, _ := cc.localAxes()
	cc.pan(up, delta)
}

func (cc *cameraControllerImpl) PanForward(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, _, forward := cc.localAxes()
	cc.pan(forward, delta)
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}
