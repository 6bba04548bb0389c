// internal/game/presenter.go
package game

import (
	engine "github.com/jason-s-yu/ludo/engine"
	"github.com/sirupsen/logrus"
)

// Presenter is told about visible state changes. Rule outcomes never depend
// on it; calls happen with the session lock held, so implementations must not
// call back into the Session.
type Presenter interface {
	ShowActiveSeat(c engine.Color)
	ShowDice(c engine.Color, value int)
	ShowCountdown(c engine.Color, ticks int)
	ShowEffects(c engine.Color, effects []engine.Effect)
	ShowRank(c engine.Color, rank int)
	ShowGameOver()
	ShowReset()
}

// LogPresenter writes presentation events to a logger at debug level, for
// servers with no attached display.
type LogPresenter struct {
	log *logrus.Entry
}

// NewLogPresenter wraps log.
func NewLogPresenter(log *logrus.Entry) *LogPresenter {
	return &LogPresenter{log: log}
}

func (p *LogPresenter) ShowActiveSeat(c engine.Color) {
	p.log.WithField("seat", c).Debug("active seat")
}

func (p *LogPresenter) ShowDice(c engine.Color, value int) {
	p.log.WithFields(logrus.Fields{"seat": c, "dice": value}).Debug("dice rolled")
}

func (p *LogPresenter) ShowCountdown(c engine.Color, ticks int) {
	p.log.WithFields(logrus.Fields{"seat": c, "ticks": ticks}).Trace("countdown")
}

func (p *LogPresenter) ShowEffects(c engine.Color, effects []engine.Effect) {
	if !p.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	for _, e := range effects {
		p.log.WithFields(logrus.Fields{
			"seat":   c,
			"effect": e.Kind,
			"token":  e.Token.Index,
			"owner":  e.Token.Seat,
			"cell":   e.Cell.Coord,
		}).Debug("move effect")
	}
}

func (p *LogPresenter) ShowRank(c engine.Color, rank int) {
	p.log.WithFields(logrus.Fields{"seat": c, "rank": rank}).Info("seat finished")
}

func (p *LogPresenter) ShowGameOver() {
	p.log.Info("game over")
}

func (p *LogPresenter) ShowReset() {
	p.log.Info("board reset")
}
