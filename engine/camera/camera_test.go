package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func position(cc CameraController) mgl32.Vec3 {
	x, y, z := cc.Position()
	return mgl32.Vec3{x, y, z}
}

func TestController_Defaults(t *testing.T) {
	cc := NewCameraController()
	assert.InDelta(t, 2.0, cc.Radius(), 1e-6)
	assert.True(t, position(cc).ApproxEqualThreshold(mgl32.Vec3{0, 0, 2}, 1e-6))
	assert.Equal(t, float32(3), cc.Damping())
}

func TestController_DampedUpdate(t *testing.T) {
	cc := NewCameraController(WithDamping(3))
	cc.SetRadius(4)
	assert.InDelta(t, 2.0, cc.Radius(), 1e-6, "goal changes do not move the camera until Update")

	cc.Update(16)
	want := 2 + 2*(1-math.Exp(-3*0.016))
	assert.InDelta(t, want, cc.Radius(), 1e-4)

	for range 500 {
		cc.Update(16)
	}
	assert.InDelta(t, 4.0, cc.Radius(), 1e-3)
	assert.InDelta(t, 4.0, position(cc).Len(), 1e-3)
}

func TestController_ZeroDeltaDoesNotMove(t *testing.T) {
	cc := NewCameraController()
	cc.OrbitRight()
	cc.Update(0)
	assert.Zero(t, cc.Azimuth())
}

func TestController_NoDampingSnaps(t *testing.T) {
	cc := NewCameraController(WithDamping(0))
	cc.SetDamping(-1)
	assert.Zero(t, cc.Damping())

	cc.SetAzimuth(math.Pi / 2)
	cc.Update(16)
	assert.True(t, position(cc).ApproxEqualThreshold(mgl32.Vec3{2, 0, 0}, 1e-5), "got %v", position(cc))
}

func TestController_Clamps(t *testing.T) {
	cc := NewCameraController(WithDamping(0), WithRadiusBounds(1, 5), WithElevationBounds(-1, 1))

	cc.Zoom(100)
	cc.Update(16)
	assert.Equal(t, float32(1), cc.Radius())

	cc.SetRadius(50)
	cc.Update(16)
	assert.Equal(t, float32(5), cc.Radius())

	cc.Orbit(0, 1e6)
	cc.Update(16)
	assert.Equal(t, float32(1), cc.Elevation())

	cc.SetElevation(-3)
	cc.Update(16)
	assert.Equal(t, float32(-1), cc.Elevation())
}

func TestController_SetPositionSnaps(t *testing.T) {
	cc := NewCameraController()
	cc.SetPosition(3, 0, 0)
	assert.InDelta(t, 3.0, cc.Radius(), 1e-5)
	assert.InDelta(t, math.Pi/2, cc.Azimuth(), 1e-5)
	assert.True(t, position(cc).ApproxEqualThreshold(mgl32.Vec3{3, 0, 0}, 1e-5))

	// onto the target is ignored
	cc.SetPosition(0, 0, 0)
	assert.InDelta(t, 3.0, cc.Radius(), 1e-5)
}

func TestController_PanMovesPivot(t *testing.T) {
	cc := NewCameraController(WithDamping(0), WithPanSpeed(1))
	cc.PanRight(1)
	cc.Update(16)

	x, y, z := cc.Target()
	assert.InDelta(t, 1.0, x, 1e-5)
	assert.InDelta(t, 0.0, y, 1e-5)
	assert.InDelta(t, 0.0, z, 1e-5)
	assert.True(t, position(cc).ApproxEqualThreshold(mgl32.Vec3{1, 0, 2}, 1e-5))

	cc.PanUp(1)
	cc.PanForward(1)
	cc.Update(16)
	x, y, z = cc.Target()
	assert.InDelta(t, 1.0, x, 1e-5)
	assert.InDelta(t, 1.0, y, 1e-5)
	assert.InDelta(t, -1.0, z, 1e-5)
}

func TestCamera_ViewProjection(t *testing.T) {
	cam := NewCamera(WithController(NewCameraController()), WithAspect(16.0/9.0))
	assert.InDelta(t, mgl32.DegToRad(75), cam.Fov(), 1e-6)

	vp := mgl32.Mat4(cam.ViewProjectionMatrix())
	clip := vp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	require.Greater(t, clip[3], float32(0))
	assert.InDelta(t, 0.0, clip[0]/clip[3], 1e-6)
	assert.InDelta(t, 0.0, clip[1]/clip[3], 1e-6)
	depth := clip[2] / clip[3]
	assert.Greater(t, depth, float32(0))
	assert.Less(t, depth, float32(1))

	// a point on the near plane maps to depth 0
	near := vp.Mul4x1(mgl32.Vec4{0, 0, 2 - cam.Near(), 1})
	assert.InDelta(t, 0.0, near[2]/near[3], 1e-4)

	inv := mgl32.Mat4(cam.InverseProjectionMatrix())
	ident := inv.Mul4(mgl32.Mat4(cam.ProjectionMatrix()))
	assert.True(t, ident.ApproxEqualThreshold(mgl32.Ident4(), 1e-4))
}

func TestCamera_SetAspect(t *testing.T) {
	cam := NewCamera()
	before := cam.ProjectionMatrix()

	cam.SetAspect(0)
	cam.SetAspect(-2)
	assert.Equal(t, float32(1), cam.Aspect())
	assert.Equal(t, before, cam.ProjectionMatrix())

	cam.SetAspect(2)
	assert.Equal(t, float32(2), cam.Aspect())
	assert.InDelta(t, before[0]/2, cam.ProjectionMatrix()[0], 1e-6)
}

func TestCamera_UpdateDrivesController(t *testing.T) {
	cc := NewCameraController(WithDamping(0))
	cam := NewCamera(WithController(cc))
	before := cam.ViewMatrix()

	cc.SetAzimuth(1)
	assert.Equal(t, before, cam.ViewMatrix())
	cam.Update(16)
	assert.NotEqual(t, before, cam.ViewMatrix())
	assert.InDelta(t, 1.0, cc.Azimuth(), 1e-6)
}

func TestCamera_Apply(t *testing.T) {
	set := renderer.NewUniformSet()
	cam := NewCamera(WithController(NewCameraController()))
	cam.Apply(set)
	cam.Apply(nil)

	vp := set.Uniform(shader.UniformViewProjection)
	require.NotNil(t, vp)
	assert.Equal(t, renderer.UniformMat4, vp.Kind())
	want := cam.ViewProjectionMatrix()
	assert.Equal(t, want[:], vp.Data())

	eye, ok := set.Lookup(shader.UniformCameraPosition)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{0, 0, 2, 1}, eye, 1e-6)
}
