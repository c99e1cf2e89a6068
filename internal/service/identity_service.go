package service

import (
	"context"
	"log"

	"rostra/internal/models"
	"rostra/internal/repository"
	"rostra/pkg/roblox"
)

// IdentityService keeps the local user cache in sync with the external
// identity provider. Sync is at-least-once and best-effort: a lookup
// failure never fails the operation that triggered it.
type IdentityService struct {
	userRepo *repository.UserRepository
	client   *roblox.Client
}

func NewIdentityService(userRepo *repository.UserRepository, client *roblox.Client) *IdentityService {
	return &IdentityService{userRepo: userRepo, client: client}
}

// Sync refreshes username and avatar for an external user id, creating the
// cache row on first sight.
func (s *IdentityService) Sync(ctx context.Context, userID, workspaceID uint64) {
	username, err := s.client.GetUsername(ctx, userID)
	if err != nil {
		log.Printf("[IDENTITY] username lookup failed for %d: %v", userID, err)
		return
	}
	picture, err := s.client.GetThumbnail(ctx, userID)
	if err != nil {
		log.Printf("[IDENTITY] thumbnail lookup failed for %d: %v", userID, err)
		picture = ""
	}
	err = s.userRepo.Upsert(&models.User{
		ID:          userID,
		WorkspaceID: workspaceID,
		Username:    username,
		Picture:     picture,
	})
	if err != nil {
		log.Printf("[IDENTITY] cache update failed for %d: %v", userID, err)
	}
}

// RankIn returns the user's rank in the workspace group; 0 when unknown.
func (s *IdentityService) RankIn(ctx context.Context, groupID, userID uint64) int {
	rank, err := s.client.GetRankInGroup(ctx, groupID, userID)
	if err != nil {
		log.Printf("[IDENTITY] rank lookup failed for %d in %d: %v", userID, groupID, err)
		return 0
	}
	return rank
}
