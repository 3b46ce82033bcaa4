package usecase

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DefaultImageExt - расширение, если его нет в имени файла или в пути URL
const DefaultImageExt = ".jpg"

// UnknownRoomID подставляется, когда id комнаты не передан
const UnknownRoomID = "unknown"

var (
	validExt    = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)
	roomIDClean = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// AssetNamer выдаёт имена вида {id}_{timestamp}{ext}.
// timestamp - миллисекунды, монотонные в пределах процесса: два вызова в одну
// миллисекунду получат разные значения.
type AssetNamer struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewAssetNamer(now func() time.Time) *AssetNamer {
	if now == nil {
		now = time.Now
	}
	return &AssetNamer{now: now}
}

func (n *AssetNamer) Name(roomID, ext string) string {
	n.mu.Lock()
	ts := n.now().UnixMilli()
	if ts <= n.last {
		ts = n.last + 1
	}
	n.last = ts
	n.mu.Unlock()

	return fmt.Sprintf("%s_%d%s", normalizeRoomID(roomID), ts, normalizeExt(ext))
}

// ExtFromFilename берёт расширение из исходного имени загруженного файла.
func ExtFromFilename(name string) string {
	return normalizeExt(path.Ext(strings.ReplaceAll(name, `\`, "/")))
}

// ExtFromURLPath берёт расширение из пути URL. Query и fragment к этому моменту
// уже отрезаны; всё, что не похоже на расширение, заменяется на DefaultImageExt.
func ExtFromURLPath(urlPath string) string {
	return normalizeExt(path.Ext(urlPath))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if i := strings.IndexAny(ext, "?#&="); i >= 0 {
		ext = ext[:i]
	}
	if !validExt.MatchString(ext) {
		return DefaultImageExt
	}
	return ext
}

// normalizeRoomID не пускает в имя файла разделители путей и прочий мусор.
func normalizeRoomID(roomID string) string {
	cleaned := roomIDClean.ReplaceAllString(strings.TrimSpace(roomID), "")
	if cleaned == "" {
		return UnknownRoomID
	}
	return cleaned
}
