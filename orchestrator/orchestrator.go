// Package orchestrator sequences the pieces the other packages leave
// separate: the file table, the free-space tracker, the misc-data overlay,
// the loading-table pool, and the memory-flag pool. It is the only layer
// that knows how a full load/edit/save cycle fits together.
package orchestrator

import (
	"fmt"

	"github.com/galehouse/romforge/checksum"
	"github.com/galehouse/romforge/entity"
	"github.com/galehouse/romforge/filetable"
	"github.com/galehouse/romforge/freespace"
	"github.com/galehouse/romforge/loading"
	"github.com/galehouse/romforge/log"
	"github.com/galehouse/romforge/misc"
	"github.com/galehouse/romforge/region"
	"github.com/galehouse/romforge/room"
)

// Engine owns a single loaded ROM image and everything a save needs to
// rebuild it: the file table, the allocator, the schema, and the misc-data
// overlay, all kept consistent with each other until Save.
type Engine struct {
	cfg    *region.Config
	schema entity.Schema

	ft    *filetable.FileTable
	fs    *freespace.FreeSpace
	flags *entity.FlagPool
	misc  *misc.Overlay

	loadingPool *loading.Pool
}

// Load parses rom under cfg, builds the free-space tracker seeded with the
// file table's current occupied ranges, and parses the misc-data overlay
// out of the distinguished RoomDataFileIndex payload.
func Load(cfg *region.Config, schema entity.Schema, rom []byte) (*Engine, error) {
	ft, err := filetable.New(cfg, rom)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parsing file table: %w", err)
	}

	occupied, err := ft.OccupiedRanges()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: computing occupied ranges: %w", err)
	}
	fs := freespace.New(cfg)
	for i, span := range occupied {
		if span[0] < cfg.FreeSpaceStart || span[1] > cfg.FreeSpaceEnd {
			continue // lives outside the tracked free-space window, e.g. a pinned low file
		}
		if err := fs.ForceAllocate(span[0], span[1]-span[0]); err != nil {
			return nil, fmt.Errorf("orchestrator: marking file %d's span in use: %w", i, err)
		}
	}

	roomDataPayload, err := ft.Decompressed(cfg.RoomDataFileIndex)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: reading misc overlay payload: %w", err)
	}
	ov, err := misc.Parse(roomDataPayload, misc.RootOffset)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parsing misc overlay: %w", err)
	}

	log.Info("loaded ROM", log.F("region", cfg.Name), log.F("files", ft.Count()))

	return &Engine{
		cfg:         cfg,
		schema:      schema,
		ft:          ft,
		fs:          fs,
		flags:       entity.NewFlagPool(0, 0x3FF),
		misc:        ov,
		loadingPool: loading.NewPool(),
	}, nil
}

// FileTable exposes the engine's underlying file table for read access.
func (e *Engine) FileTable() *filetable.FileTable { return e.ft }

// Misc exposes the parsed misc-data overlay for read and restricted write
// access (section 5 stays subject to misc.ErrIllegalEdit).
func (e *Engine) Misc() *misc.Overlay { return e.misc }

// Flags exposes the memory-flag pool, seeded empty; callers that need to
// reserve flags already referenced by existing entities should Hold them
// before acquiring new ones.
func (e *Engine) Flags() *entity.FlagPool { return e.flags }

// Room decodes the room payload at a given room-range file index.
func (e *Engine) Room(fileIndex int) (*room.Room, error) {
	if !e.cfg.IsRoomIndex(fileIndex) {
		return nil, fmt.Errorf("orchestrator: file index %d is not a room", fileIndex)
	}
	data, err := e.ft.Decompressed(fileIndex)
	if err != nil {
		return nil, err
	}
	return room.Parse(data, fileIndex)
}

// SetRoom registers r's loading dependency list in the loading pool, records
// the resulting thunk's offset in r's header, then re-serializes r and
// stages it as the file table's edit for its FileIndex. This mirrors the
// writer procedure's step order: the list and thunk offsets must be known
// before the room's metadata header (which embeds the thunk's address) is
// serialized.
//
// ListOffset and ThunkAddress are tracked as byte offsets within the final
// list pool and thunk table respectively, not full runtime addresses: both
// tables live inside a single never-relocated payload, so a payload-relative
// offset is all any reader needs to resolve a room's dependencies.
func (e *Engine) SetRoom(r *room.Room, deps loading.List, thunk loading.Thunk) error {
	listOffset := e.loadingPool.AddList(deps)
	thunk.ListOffset = uint16(listOffset)
	thunkOffset := e.loadingPool.AddThunk(thunk.ListOffset)
	r.ThunkAddress = uint32(thunkOffset)

	data, err := r.Serialize()
	if err != nil {
		return fmt.Errorf("orchestrator: serializing room %d: %w", r.FileIndex, err)
	}
	return e.ft.SetData(r.FileIndex, data)
}

// Save sequences a full write-back: it stages the misc overlay and loading
// tables as edits to their host files, asks the file table to recompress
// and reallocate everything that changed, and finally patches the
// cartridge checksum over the result. Returns a fresh ROM image and never
// writes into the image the engine was loaded from; if a later step fails,
// the misc-overlay and loading-table edits already staged stay recorded in
// the file table.
func (e *Engine) Save() ([]byte, error) {
	miscPayload, err := e.ft.Decompressed(e.cfg.RoomDataFileIndex)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: re-reading misc overlay host payload: %w", err)
	}
	newMiscPayload := e.misc.Bytes(miscPayload)
	if err := e.ft.SetData(e.cfg.RoomDataFileIndex, newMiscPayload); err != nil {
		return nil, fmt.Errorf("orchestrator: staging misc overlay: %w", err)
	}

	mainCode, err := e.ft.Decompressed(e.cfg.MainCodeFileIndex)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: re-reading loading tables host payload: %w", err)
	}
	thunkTable := e.loadingPool.ThunkTableBytes()
	listPool := e.loadingPool.ListPoolBytes()
	// The two tables each live in a pinned sub-region of the main-code
	// payload; only those spans are zeroed and rewritten, leaving the rest
	// of the payload's game code untouched.
	routineStart, routineEnd := e.cfg.LoadingRoutineStart, e.cfg.LoadingRoutineEnd
	dataStart, dataEnd := e.cfg.LoadingDataStart, e.cfg.LoadingDataEnd
	if routineEnd > len(mainCode) || dataEnd > len(mainCode) {
		return nil, fmt.Errorf("orchestrator: loading table regions exceed main-code payload length %d", len(mainCode))
	}
	if err := e.loadingPool.FitThunkRegion(routineEnd - routineStart); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	if err := e.loadingPool.FitListRegion(dataEnd - dataStart); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	newMainCode := append([]byte(nil), mainCode...)
	for i := routineStart; i < routineEnd; i++ {
		newMainCode[i] = 0
	}
	for i := dataStart; i < dataEnd; i++ {
		newMainCode[i] = 0
	}
	copy(newMainCode[routineStart:], thunkTable)
	copy(newMainCode[dataStart:], listPool)
	if err := e.ft.SetData(e.cfg.MainCodeFileIndex, newMainCode); err != nil {
		return nil, fmt.Errorf("orchestrator: staging loading tables: %w", err)
	}

	out, err := e.ft.Save(e.fs)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: saving file table: %w", err)
	}

	if err := checksum.Apply(out); err != nil {
		return nil, fmt.Errorf("orchestrator: applying cartridge checksum: %w", err)
	}

	log.Info("saved ROM", log.F("region", e.cfg.Name), log.F("bytes", len(out)))
	return out, nil
}
