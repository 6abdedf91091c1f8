// Package nexthire provides a client for the NextHire chat service API.
package nexthire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a NextHire chat API client. Token is the bearer token
// minted by the identity service.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) doRequest(method, path string, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("chat API error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// FileRef references an uploaded attachment.
type FileRef struct {
	URL  string `json:"fileUrl"`
	Type string `json:"fileType"`
	Name string `json:"fileName"`
}

// Message represents a chat message.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderRole string    `json:"senderRole"`
	Text       string    `json:"message"`
	GIF        string    `json:"gif,omitempty"`
	File       *FileRef  `json:"file,omitempty"`
	GroupName  string    `json:"groupName,omitempty"`
	Members    []string  `json:"members,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	ReadBy     []string  `json:"readBy"`
}

// MessagesResponse is the room history response.
type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

// GetMessages lists a room's history. Opening the room marks it read
// for the caller.
func (c *Client) GetMessages(roomID string) (*MessagesResponse, error) {
	respBody, err := c.doRequest("GET", "/api/chat/rooms/"+url.PathEscape(roomID)+"/messages", "", nil)
	if err != nil {
		return nil, err
	}

	var resp MessagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PostMessageRequest is the post message request body.
type PostMessageRequest struct {
	Text string   `json:"message"`
	GIF  string   `json:"gif,omitempty"`
	File *FileRef `json:"file,omitempty"`
}

// PostMessage posts a message into a room.
func (c *Client) PostMessage(roomID string, req PostMessageRequest) (*Message, error) {
	body, _ := json.Marshal(req)
	respBody, err := c.doRequest("POST", "/api/chat/rooms/"+url.PathEscape(roomID)+"/messages", "application/json", body)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead marks every message in the room read for the caller.
func (c *Client) MarkRead(roomID string) error {
	_, err := c.doRequest("POST", "/api/chat/rooms/"+url.PathEscape(roomID)+"/read", "application/json", []byte("{}"))
	return err
}

// Conversation is one inbox row.
type Conversation struct {
	RoomID            string    `json:"roomId"`
	Kind              string    `json:"kind"`
	CounterpartID     string    `json:"counterpartId,omitempty"`
	CounterpartName   string    `json:"counterpartName,omitempty"`
	CounterpartAvatar string    `json:"counterpartAvatar,omitempty"`
	GroupName         string    `json:"groupName,omitempty"`
	LastMessage       string    `json:"lastMessage"`
	LastTimestamp     time.Time `json:"lastTimestamp"`
	Unread            int       `json:"unreadCount"`
}

// ConversationsResponse is the inbox listing response.
type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// ListConversations returns the caller's inbox.
func (c *Client) ListConversations() (*ConversationsResponse, error) {
	respBody, err := c.doRequest("GET", "/api/chat/conversations", "", nil)
	if err != nil {
		return nil, err
	}

	var resp ConversationsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile is a directory profile.
type Profile struct {
	ID        string `json:"id"`
	FullName  string `json:"fullname"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ApplicantsResponse is the applicants listing response.
type ApplicantsResponse struct {
	Applicants []Profile `json:"applicants"`
}

// ListApplicants returns the candidates the recruiter has rooms with.
func (c *Client) ListApplicants() (*ApplicantsResponse, error) {
	respBody, err := c.doRequest("GET", "/api/chat/applicants", "", nil)
	if err != nil {
		return nil, err
	}

	var resp ApplicantsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateGroupRequest is the group creation request body.
type CreateGroupRequest struct {
	GroupName string   `json:"groupName"`
	MemberIDs []string `json:"memberIds"`
}

// CreateGroupResponse is the group creation response.
type CreateGroupResponse struct {
	RoomID    string   `json:"roomId"`
	GroupName string   `json:"groupName"`
	MemberIDs []string `json:"memberIds"`
}

// CreateGroup creates a group room.
func (c *Client) CreateGroup(groupName string, memberIDs []string) (*CreateGroupResponse, error) {
	body, _ := json.Marshal(CreateGroupRequest{GroupName: groupName, MemberIDs: memberIDs})
	respBody, err := c.doRequest("POST", "/api/chat/groups", "application/json", body)
	if err != nil {
		return nil, err
	}

	var resp CreateGroupResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadResponse is the attachment upload response.
type UploadResponse struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Upload sends an attachment and returns its stored reference.
func (c *Client) Upload(name, mediaType string, data []byte) (*UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	respBody, err := c.doRequest("POST", "/api/chat/upload", mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchHit is one search result.
type SearchHit struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Preview   string    `json:"preview"`
	Timestamp time.Time `json:"timestamp"`
}

// FindResponse is the search response.
type FindResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// Find searches indexed message bodies.
func (c *Client) Find(query string, limit int, roomID string) (*FindResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if roomID != "" {
		params.Set("room", roomID)
	}

	respBody, err := c.doRequest("GET", "/api/chat/find?"+params.Encode(), "", nil)
	if err != nil {
		return nil, err
	}

	var resp FindResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Health checks service health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, err := c.doRequest("GET", "/health", "", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
