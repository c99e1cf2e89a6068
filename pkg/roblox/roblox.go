// Package roblox is a thin client for the public Roblox identity APIs. The
// core only ever consumes usernames, avatar thumbnails and group ranks by
// opaque numeric id; it never writes to these services.
package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"rostra/config"
)

type Client struct {
	usersBaseURL      string
	groupsBaseURL     string
	thumbnailsBaseURL string
	client            *http.Client
}

func NewClient(cfg *config.RobloxConfig) *Client {
	return &Client{
		usersBaseURL:      cfg.UsersBaseURL,
		groupsBaseURL:     cfg.GroupsBaseURL,
		thumbnailsBaseURL: cfg.ThumbnailsBaseURL,
		client:            &http.Client{Timeout: cfg.Timeout},
	}
}

type userResp struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// GetUsername resolves the current username for a user id.
func (c *Client) GetUsername(ctx context.Context, userID uint64) (string, error) {
	var out userResp
	url := fmt.Sprintf("%s/v1/users/%d", c.usersBaseURL, userID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return "", err
	}
	return out.Name, nil
}

type thumbnailResp struct {
	Data []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

// GetThumbnail resolves the avatar headshot URL for a user id.
func (c *Client) GetThumbnail(ctx context.Context, userID uint64) (string, error) {
	var out thumbnailResp
	url := fmt.Sprintf("%s/v1/users/avatar-headshot?userIds=%d&size=180x180&format=Png", c.thumbnailsBaseURL, userID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("no thumbnail for user %d", userID)
	}
	return out.Data[0].ImageURL, nil
}

type groupRolesResp struct {
	Data []struct {
		Group struct {
			ID uint64 `json:"id"`
		} `json:"group"`
		Role struct {
			Rank int `json:"rank"`
		} `json:"role"`
	} `json:"data"`
}

// GetRankInGroup returns the user's rank in the group, 0 when the user is
// not a member.
func (c *Client) GetRankInGroup(ctx context.Context, groupID, userID uint64) (int, error) {
	var out groupRolesResp
	url := fmt.Sprintf("%s/v2/users/%d/groups/roles", c.groupsBaseURL, userID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return 0, err
	}
	for _, entry := range out.Data {
		if entry.Group.ID == groupID {
			return entry.Role.Rank, nil
		}
	}
	return 0, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("roblox api: unexpected status %d for %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
