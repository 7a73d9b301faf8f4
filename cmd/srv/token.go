package main

import (
	"fmt"

	"github.com/impact-lab/backend/internal/model"
	"github.com/urfave/cli/v2"
)

func (s *srv) startToken(cctx *cli.Context) error {
	s.loadDatabase()
	s.loadRepos()

	userID := cctx.String("user")
	user, err := s.userRepo.GetByID(s.ctx, userID)
	if err != nil {
		return fmt.Errorf("cannot get user %s: %w", userID, err)
	}

	token, err := s.tokenEngine.Generate(user.ID, model.AccessToken{ID: user.ID, Name: user.Name})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
