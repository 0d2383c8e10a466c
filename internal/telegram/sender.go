package telegram

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/tg"
)

// Video is a local file to be sent as a playable video.
type Video struct {
	Path      string
	Caption   string // HTML
	Width     int
	Height    int
	Streaming bool
}

// Sender is the bot's outgoing side: HTML texts, video uploads and deletes.
type Sender struct {
	api      *tg.Client
	sender   *message.Sender
	uploader *Uploader
}

func NewSender(api *tg.Client) *Sender {
	return &Sender{
		api:      api,
		sender:   message.NewSender(api),
		uploader: NewUploader(api),
	}
}

func (s *Sender) SendText(ctx context.Context, peer tg.InputPeerClass, replyTo int, text string) (int, error) {
	updates, err := s.sender.To(peer).Reply(replyTo).StyledText(ctx, html.String(nil, text))
	if err != nil {
		return 0, fmt.Errorf("send message failed: %w", err)
	}
	return MessageID(updates), nil
}

func (s *Sender) SendVideo(ctx context.Context, peer tg.InputPeerClass, replyTo int, v Video) error {
	file, err := s.uploader.UploadFile(ctx, v.Path)
	if err != nil {
		return err
	}

	doc := message.UploadedDocument(file, html.String(nil, v.Caption)).
		MIME("video/mp4").
		Filename(filepath.Base(v.Path)).
		Attributes(&tg.DocumentAttributeVideo{
			SupportsStreaming: v.Streaming,
			W:                 v.Width,
			H:                 v.Height,
		})

	if _, err := s.sender.To(peer).Reply(replyTo).Media(ctx, doc); err != nil {
		return fmt.Errorf("send video failed: %w", err)
	}
	return nil
}

func (s *Sender) DeleteMessage(ctx context.Context, peer tg.InputPeerClass, id int) error {
	if id == 0 {
		return nil
	}

	if channelPeer, ok := peer.(*tg.InputPeerChannel); ok {
		_, err := s.api.ChannelsDeleteMessages(ctx, &tg.ChannelsDeleteMessagesRequest{
			Channel: &tg.InputChannel{
				ChannelID:  channelPeer.ChannelID,
				AccessHash: channelPeer.AccessHash,
			},
			ID: []int{id},
		})
		if err != nil {
			return fmt.Errorf("delete channel message %d: %w", id, err)
		}
		return nil
	}

	_, err := s.api.MessagesDeleteMessages(ctx, &tg.MessagesDeleteMessagesRequest{
		ID:     []int{id},
		Revoke: true,
	})
	if err != nil {
		return fmt.Errorf("delete message %d: %w", id, err)
	}
	return nil
}
