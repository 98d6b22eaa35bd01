package world

import (
	"context"
	"errors"
)

type adminSaveReq struct {
	Resp chan error
}

// RequestSave asks the loop to write the session now, dirty or not.
func (w *World) RequestSave(ctx context.Context) error {
	if w == nil || w.admin == nil {
		return errors.New("admin save not available")
	}
	resp := make(chan error, 1)
	select {
	case w.admin <- adminSaveReq{Resp: resp}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *World) handleAdminSave(req adminSaveReq) {
	var err error
	if w.session == nil {
		err = errors.New("no session store configured")
	} else {
		err = w.save()
	}
	if req.Resp != nil {
		req.Resp <- err
	}
}
