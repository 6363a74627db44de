package server

import (
	"context"

	"choria/internal/shared/protocol"
	"choria/internal/world/entity"
)

func (s *Server) handleTradeRequest(_ context.Context, e *entity.Entity, _ *protocol.Reader) error {
	s.c.Trades.Request(e)
	return nil
}

func (s *Server) handleTradeCancel(_ context.Context, e *entity.Entity, _ *protocol.Reader) error {
	s.c.Trades.Cancel(e)
	return nil
}

func (s *Server) handleTradeGold(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	gold := int(r.ReadInt32())
	if err := r.Err(); err != nil {
		return err
	}
	s.c.Trades.Gold(e, gold)
	return nil
}

func (s *Server) handleTradeAccept(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	accepted := r.ReadUint8()
	if err := r.Err(); err != nil {
		return err
	}
	s.c.Trades.Accept(e, accepted != 0)
	return nil
}
