package telegram

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/gotd/td/tg"
)

type savedPart struct {
	id    int64
	part  int
	total int
	data  []byte
	big   bool
}

type fakeSaver struct {
	mu    sync.Mutex
	parts []savedPart
	fail  bool
}

func (f *fakeSaver) UploadSaveFilePart(_ context.Context, r *tg.UploadSaveFilePartRequest) (bool, error) {
	if f.fail {
		return false, errors.New("FILE_PART_INVALID")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parts = append(f.parts, savedPart{id: r.FileID, part: r.FilePart, data: append([]byte(nil), r.Bytes...)})
	return true, nil
}

func (f *fakeSaver) UploadSaveBigFilePart(_ context.Context, r *tg.UploadSaveBigFilePartRequest) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parts = append(f.parts, savedPart{id: r.FileID, part: r.FilePart, total: r.FileTotalParts, data: append([]byte(nil), r.Bytes...), big: true})
	return true, nil
}

func (f *fakeSaver) reassemble() []byte {
	sort.Slice(f.parts, func(i, j int) bool { return f.parts[i].part < f.parts[j].part })
	var buf bytes.Buffer
	for _, p := range f.parts {
		buf.Write(p.data)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path, data
}

func TestUploadFile_Small(t *testing.T) {
	path, data := writeFile(t, partSize*2+100)
	api := &fakeSaver{}

	file, err := NewUploader(api).UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	in, ok := file.(*tg.InputFile)
	if !ok {
		t.Fatalf("got %T, want *tg.InputFile", file)
	}
	if in.Parts != 3 || in.Name != "video.mp4" {
		t.Errorf("InputFile = %+v", in)
	}
	if len(api.parts) != 3 {
		t.Fatalf("saved %d parts, want 3", len(api.parts))
	}
	for _, p := range api.parts {
		if p.id != in.ID || p.big {
			t.Errorf("part %d: id=%d big=%v", p.part, p.id, p.big)
		}
	}
	if !bytes.Equal(api.reassemble(), data) {
		t.Error("reassembled parts differ from file")
	}
}

func TestUploadFile_Big(t *testing.T) {
	path, data := writeFile(t, bigFileThreshold+1)
	api := &fakeSaver{}

	file, err := NewUploader(api).UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	in, ok := file.(*tg.InputFileBig)
	if !ok {
		t.Fatalf("got %T, want *tg.InputFileBig", file)
	}
	wantParts := bigFileThreshold/partSize + 1
	if in.Parts != wantParts {
		t.Errorf("Parts = %d, want %d", in.Parts, wantParts)
	}
	for _, p := range api.parts {
		if !p.big || p.total != wantParts {
			t.Fatalf("part %d: big=%v total=%d", p.part, p.big, p.total)
		}
	}
	if !bytes.Equal(api.reassemble(), data) {
		t.Error("reassembled parts differ from file")
	}
}

func TestUploadFile_Errors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewUploader(&fakeSaver{}).UploadFile(context.Background(), empty); err == nil {
		t.Error("empty file should fail")
	}

	if _, err := NewUploader(&fakeSaver{}).UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file should fail")
	}

	path, _ := writeFile(t, 1000)
	if _, err := NewUploader(&fakeSaver{fail: true}).UploadFile(context.Background(), path); err == nil {
		t.Error("API failure should propagate")
	}
}

func TestMessageID(t *testing.T) {
	tests := []struct {
		name    string
		updates tg.UpdatesClass
		want    int
	}{
		{"short", &tg.UpdateShortSentMessage{ID: 7}, 7},
		{"new message", &tg.Updates{Updates: []tg.UpdateClass{
			&tg.UpdateNewMessage{Message: &tg.Message{ID: 11}},
		}}, 11},
		{"channel message", &tg.Updates{Updates: []tg.UpdateClass{
			&tg.UpdateNewChannelMessage{Message: &tg.Message{ID: 12}},
		}}, 12},
		{"message id", &tg.Updates{Updates: []tg.UpdateClass{
			&tg.UpdateMessageID{ID: 13, RandomID: 1},
		}}, 13},
		{"empty", &tg.Updates{}, 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		if got := MessageID(tt.updates); got != tt.want {
			t.Errorf("%s: MessageID = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestResolvePeer(t *testing.T) {
	e := tg.Entities{
		Users:    map[int64]*tg.User{1: {ID: 1, AccessHash: 10}},
		Chats:    map[int64]*tg.Chat{2: {ID: 2}},
		Channels: map[int64]*tg.Channel{3: {ID: 3, AccessHash: 30}},
	}

	p, err := ResolvePeer(&tg.PeerUser{UserID: 1}, e)
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := p.(*tg.InputPeerUser); !ok || u.AccessHash != 10 {
		t.Errorf("user peer = %#v", p)
	}

	p, err = ResolvePeer(&tg.PeerChannel{ChannelID: 3}, e)
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := p.(*tg.InputPeerChannel); !ok || c.AccessHash != 30 {
		t.Errorf("channel peer = %#v", p)
	}

	if _, err := ResolvePeer(&tg.PeerChat{ChatID: 2}, e); err != nil {
		t.Errorf("chat peer: %v", err)
	}
	if _, err := ResolvePeer(&tg.PeerUser{UserID: 99}, e); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestSenderID(t *testing.T) {
	msg := &tg.Message{PeerID: &tg.PeerChat{ChatID: 5}}
	msg.SetFromID(&tg.PeerUser{UserID: 42})
	if got := SenderID(msg); got != 42 {
		t.Errorf("SenderID = %d, want 42", got)
	}

	private := &tg.Message{PeerID: &tg.PeerUser{UserID: 7}}
	if got := SenderID(private); got != 7 {
		t.Errorf("SenderID = %d, want 7", got)
	}
}
