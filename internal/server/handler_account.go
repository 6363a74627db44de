package server

import (
	"context"
	"errors"

	"choria/internal/account/app"
	"choria/internal/account/domain"
	player "choria/internal/player/entity"
	"choria/internal/shared/protocol"
	"choria/internal/shared/transport"
	"choria/internal/world/entity"
	"choria/internal/world/worldmap"

	"go.uber.org/zap"
)

// 读字符串时的上限，超过逻辑长度的由 handler 忽略
const maxWireString = 255

func (s *Server) handleLoginInfo(ctx context.Context, e *entity.Entity, r *protocol.Reader) error {
	create := r.ReadBit()
	username := r.ReadString(maxWireString)
	password := r.ReadString(maxWireString)
	if err := r.Err(); err != nil {
		return err
	}
	if len(username) > domain.MaxUsernameLength || len(password) > domain.MaxPasswordLength {
		return ignore("login_too_long")
	}
	if _, ok := s.c.Sessions.Account(e.Peer); ok {
		return ignore("already_logged_in")
	}

	acct, err := s.c.Accounts.Login(ctx, app.LoginReq{Username: username, Password: password, Create: create})
	switch {
	case errors.Is(err, app.ErrAccountExists):
		reject(ctx, string(app.CodeAccountExists))
		s.send(e, protocol.NewPacket(protocol.OpAccountExists))
		return nil
	case errors.Is(err, app.ErrInvalidCredentials):
		reject(ctx, string(app.CodeInvalidCredentials))
		s.send(e, protocol.NewPacket(protocol.OpAccountNotFound))
		return nil
	case err != nil:
		return err
	}

	ok, err := s.c.Sessions.Bind(ctx, e.Peer, acct.ID)
	if err != nil {
		return app.ErrUnavailable.WithCause(err)
	}
	if !ok {
		reject(ctx, string(app.CodeAccountInUse))
		s.send(e, protocol.NewPacket(protocol.OpAccountInUse))
		return nil
	}
	transport.SetAccount(ctx, acct.ID)
	s.send(e, protocol.NewPacket(protocol.OpAccountSuccess))
	return nil
}

// account 已登录且还没进入世界。
func (s *Server) account(e *entity.Entity) (int64, error) {
	id, ok := s.c.Sessions.Account(e.Peer)
	if !ok {
		return 0, ignore("not_logged_in")
	}
	if e.InWorld() {
		return 0, ignore("already_playing")
	}
	return id, nil
}

func (s *Server) handleCharactersRequest(ctx context.Context, e *entity.Entity, _ *protocol.Reader) error {
	accountID, err := s.account(e)
	if err != nil {
		return err
	}
	return s.refreshCharacterList(ctx, e, accountID)
}

func (s *Server) refreshCharacterList(ctx context.Context, e *entity.Entity, accountID int64) error {
	list, err := s.c.Characters.List(ctx, accountID)
	if err != nil {
		return err
	}
	s.sendCharacterList(e, list)
	return nil
}

func (s *Server) handleCharactersPlay(ctx context.Context, e *entity.Entity, r *protocol.Reader) error {
	index := int(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	accountID, err := s.account(e)
	if err != nil {
		return err
	}
	st, err := s.c.Characters.Play(ctx, accountID, index)
	if err != nil {
		return err
	}

	e.AttachCharacter(st)
	st.GenerateNextBattle(s.c.Rand)
	s.sendCharacterInfo(e)
	if err := s.spawn(e, st.SpawnMapID, worldmap.EventSpawn, st.SpawnPoint); err != nil {
		return err
	}
	s.c.Log.WithContext(ctx).Info("character entered world",
		zap.Int64("character_id", st.ID), zap.String("name", st.Name), zap.Int("map_id", e.MapID))
	return nil
}

func (s *Server) handleCharactersDelete(ctx context.Context, e *entity.Entity, r *protocol.Reader) error {
	index := int(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	accountID, err := s.account(e)
	if err != nil {
		return err
	}
	if err := s.c.Characters.Delete(ctx, accountID, index); err != nil && !errors.Is(err, player.ErrCharacterNotFound) {
		return err
	}
	return s.refreshCharacterList(ctx, e, accountID)
}

func (s *Server) handleCreateCharacter(ctx context.Context, e *entity.Entity, r *protocol.Reader) error {
	name := r.ReadString(maxWireString)
	portrait := int(r.ReadInt32())
	if err := r.Err(); err != nil {
		return err
	}
	accountID, err := s.account(e)
	if err != nil {
		return err
	}

	err = s.c.Characters.Create(ctx, accountID, name, portrait)
	if errors.Is(err, player.ErrNameInUse) {
		reject(ctx, string(player.CodeNameInUse))
		s.send(e, protocol.NewPacket(protocol.OpCreateCharacterInUse))
		return nil
	}
	if err != nil {
		return err
	}
	s.send(e, protocol.NewPacket(protocol.OpCreateCharacterSuccess))
	return nil
}
