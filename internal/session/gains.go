package session

import (
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/control"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/optim"
)

// GainsFromParams maps a tuner vector, ordered (P, D, I), onto controller
// gains.
func GainsFromParams(p optim.Params) control.Gains {
	return control.Gains{
		Kp: p[optim.IndexP],
		Ki: p[optim.IndexI],
		Kd: p[optim.IndexD],
	}
}

// ParamsFromGains is the inverse of GainsFromParams.
func ParamsFromGains(g control.Gains) optim.Params {
	var p optim.Params
	p[optim.IndexP] = g.Kp
	p[optim.IndexD] = g.Kd
	p[optim.IndexI] = g.Ki
	return p
}
