package mathutil

// PreviewView is the fixed preview camera: a slight downward tilt and a
// turn to the side so axis-aligned models show three faces.
// Rx(-15°) @ Ry(30°)
var PreviewView = Mat3Mul(RotX(Deg2Rad(-15)), RotY(Deg2Rad(30)))
