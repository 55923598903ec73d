// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"encoding/hex"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ezrec/hcpu/cpu"
	"github.com/ezrec/hcpu/io"
)

// Emulator state. Program image + actor cores + console.
type Emulator struct {
	Verbose bool         // If set, enables per-instruction logging.
	Config  Config       // Tunables.
	Program *cpu.Program // Reference to the currently running program.
	Console io.Console   // Destination of Print output.

	logger  *zap.Logger
	decoded *lru.Cache[uint64, cpu.Instruction] // nil if disabled.

	lock  sync.RWMutex
	cores []*cpu.Core          // In creation order.
	index map[uint64]*cpu.Core // By address.

	printLock sync.Mutex
	ticks     int
}

// NewEmulator creates a new emulator. A nil logger discards log output.
func NewEmulator(config Config, logger *zap.Logger) (emu *Emulator) {
	if logger == nil {
		logger = zap.NewNop()
	}

	emu = &Emulator{
		Verbose: config.Verbose,
		Config:  config,
		Program: cpu.NewProgram(nil),
		logger:  logger,
		index:   map[uint64]*cpu.Core{},
	}

	if config.DecodeCache > 0 {
		// Only fails for a non-positive size.
		emu.decoded, _ = lru.New[uint64, cpu.Instruction](config.DecodeCache)
	}

	return
}

// Reset discards all actors, and starts a single bootstrap actor at a
// random address, running from offset 0 of the program.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrProgramMissing
		return
	}

	if emu.decoded != nil {
		emu.decoded.Purge()
	}

	emu.lock.Lock()
	emu.cores = nil
	clear(emu.index)
	emu.ticks = 0
	emu.lock.Unlock()

	var address uint64
	for address == cpu.BROADCAST {
		address = rand.Uint64()
	}

	fingerprint := emu.Program.Fingerprint()
	emu.logger.Info("reset",
		zap.String("program", hex.EncodeToString(fingerprint[:])),
		zap.Int("bytes", len(emu.Program.Image)),
	)

	err = emu.spawn(address, 0)

	return
}

// Cores returns the live cores, in creation order.
func (emu *Emulator) Cores() []*cpu.Core {
	emu.lock.RLock()
	defer emu.lock.RUnlock()

	return slices.Clone(emu.cores)
}

// Core returns the core at an address, or nil.
func (emu *Emulator) Core(address uint64) *cpu.Core {
	emu.lock.RLock()
	defer emu.lock.RUnlock()

	return emu.index[address]
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	emu.lock.RLock()
	defer emu.lock.RUnlock()

	return emu.ticks
}

// LineNo returns the source line number for an image offset, or 0 if the
// program has no listing for it.
func (emu *Emulator) LineNo(offset uint64) int {
	dbg := emu.Program.Debug(offset)
	if dbg.Statement == nil {
		return 0
	}
	return dbg.LineNo
}

// spawn adds a new running core.
func (emu *Emulator) spawn(address uint64, ip uint64) (err error) {
	if address == cpu.BROADCAST {
		err = &ErrAddress{Address: address, Err: ErrAddressReserved}
		return
	}

	emu.lock.Lock()
	_, exists := emu.index[address]
	if !exists {
		core := cpu.NewCore(address, ip, emu.Config.MailboxCapacity)
		emu.cores = append(emu.cores, core)
		emu.index[address] = core
	}
	emu.lock.Unlock()

	if exists {
		err = &ErrAddress{Address: address, Err: ErrAddressInUse}
		return
	}

	emu.logger.Info("core created", zap.Uint64("address", address), zap.Uint64("ip", ip))

	return
}

// target returns the core an action is routed to.
func (emu *Emulator) target(address uint64) (core *cpu.Core, err error) {
	core = emu.Core(address)
	if core == nil {
		err = &ErrAddress{Address: address, Err: ErrAddressUnknown}
	}
	return
}

// deliver enqueues a message for a single core. A halted core accepts no
// messages.
func (emu *Emulator) deliver(core *cpu.Core, msg io.Message) (err error) {
	core.Lock()
	if core.State == cpu.CORE_HALTED {
		err = ErrCoreHalted
	} else {
		err = core.Deliver(msg)
	}
	core.Unlock()

	if err != nil {
		err = &ErrAddress{Address: core.Address, Err: err}
	}

	return
}

// Apply performs an action on the machine. Addressing faults are returned,
// and leave the machine unchanged.
func (emu *Emulator) Apply(act cpu.Action) (err error) {
	switch act := act.(type) {
	case cpu.WriteCore:
		var core *cpu.Core
		core, err = emu.target(act.Target)
		if err != nil {
			return
		}
		core.Lock()
		core.Write(act)
		core.Unlock()
	case cpu.InstallHandler:
		var core *cpu.Core
		core, err = emu.target(act.Target)
		if err != nil {
			return
		}
		core.Lock()
		core.Install(act)
		core.Unlock()
	case cpu.SendMessage:
		msg := io.Message{Atom: act.Atom, Content: act.Content}
		if act.Receiver == cpu.BROADCAST {
			var errs []error
			for _, core := range emu.Cores() {
				core.Lock()
				halted := core.State == cpu.CORE_HALTED
				core.Unlock()
				if !halted {
					errs = append(errs, emu.deliver(core, msg))
				}
			}
			err = errors.Join(errs...)
			return
		}
		var core *cpu.Core
		core, err = emu.target(act.Receiver)
		if err != nil {
			return
		}
		err = emu.deliver(core, msg)
	case cpu.Print:
		emu.printLock.Lock()
		err = emu.Console.Print(act.Text)
		emu.printLock.Unlock()
	case cpu.SpawnActor:
		err = emu.spawn(act.Address, act.Ip)
	}

	return
}

// decode returns the instruction at an image offset.
func (emu *Emulator) decode(offset uint64) (inst cpu.Instruction, err error) {
	if emu.decoded != nil {
		var ok bool
		inst, ok = emu.decoded.Get(offset)
		if ok {
			return
		}
	}

	inst, err = emu.Program.Decode(offset)
	if err != nil {
		return
	}

	if emu.decoded != nil {
		emu.decoded.Add(offset, inst)
	}

	return
}

// Step advances a single core by one instruction, or, for a waiting core,
// dispatches one pending message.
//
// After the action is applied, ip moves past the instruction unless the
// action itself wrote the issuer's ip. A decode or action fault halts the
// core without advancing it. Addressing faults are reported, but the core
// continues.
func (emu *Emulator) Step(core *cpu.Core) (err error) {
	log := emu.logger

	core.Lock()

	switch core.State {
	case cpu.CORE_HALTED:
		core.Unlock()
		return
	case cpu.CORE_WAITING:
		if core.Mailbox.Len() == 0 {
			core.Unlock()
			return
		}
		msg, derr := core.Dispatch()
		core.Unlock()
		if derr != nil {
			log.Warn("message dropped",
				zap.Uint64("address", core.Address),
				zap.Uint64("atom", msg.Atom),
				zap.Error(derr),
			)
		} else {
			log.Info("message received",
				zap.Uint64("address", core.Address),
				zap.Uint64("atom", msg.Atom),
				zap.Binary("content", msg.Content),
			)
		}
		return
	}

	ip := core.Ip()
	address := core.Address

	fault := func(cause error) error {
		return &ErrRuntime{Address: address, Offset: ip, LineNo: emu.LineNo(ip), Err: cause}
	}

	halt := func(cause error) {
		for _, msg := range core.Halt(cause) {
			log.Warn("message dropped",
				zap.Uint64("address", address),
				zap.Uint64("atom", msg.Atom),
			)
		}
	}

	inst, err := emu.decode(ip)
	if err != nil {
		halt(err)
		core.Unlock()
		err = fault(err)
		log.Warn("decode", zap.Error(err))
		return
	}

	act, err := inst.Action(core)
	if err != nil {
		halt(err)
		core.Unlock()
		err = fault(err)
		log.Warn("halted", zap.Error(err))
		return
	}

	core.Unlock()

	if emu.Verbose {
		log.Debug("step",
			zap.Uint64("address", address),
			zap.Uint64("ip", ip),
			zap.Stringer("instruction", inst),
			zap.Stringer("action", act),
		)
	}

	err = emu.Apply(act)
	if err != nil {
		err = fault(err)
		log.Warn("apply", zap.Error(err))
	}

	core.Lock()
	if !cpu.WritesIp(act, address) {
		core.SetIp(ip + uint64(inst.Length))
	}
	if inst.Op == cpu.OP_IDLE {
		core.State = cpu.CORE_WAITING
	}
	core.Unlock()

	return
}

// Tick steps every runnable core once. Cores spawned during the tick first
// run on the next one. Per-core faults are joined into err; they do not
// stop the other cores. done is set when no core can make progress.
func (emu *Emulator) Tick(ctx context.Context) (done bool, err error) {
	var runnable []*cpu.Core
	for _, core := range emu.Cores() {
		core.Lock()
		ok := core.Runnable()
		core.Unlock()
		if ok {
			runnable = append(runnable, core)
		}
	}

	if len(runnable) == 0 {
		done = true
		return
	}

	emu.lock.Lock()
	emu.ticks++
	emu.lock.Unlock()

	faults := make([]error, len(runnable))

	if emu.Config.Workers > 1 {
		eg, ctx := errgroup.WithContext(ctx)
		eg.SetLimit(emu.Config.Workers)
		for n, core := range runnable {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				faults[n] = emu.Step(core)
				return nil
			})
		}
		err = eg.Wait()
		if err != nil {
			return
		}
	} else {
		for n, core := range runnable {
			err = ctx.Err()
			if err != nil {
				return
			}
			faults[n] = emu.Step(core)
		}
	}

	err = errors.Join(faults...)

	return
}

// Run ticks the machine until no core can make progress, maxTicks ticks
// have run, or the context is done. A maxTicks of 0 uses Config.MaxTicks;
// if that is also 0, there is no limit. All per-core faults are returned
// joined.
func (emu *Emulator) Run(ctx context.Context, maxTicks int) (ticks int, err error) {
	if maxTicks == 0 {
		maxTicks = emu.Config.MaxTicks
	}

	var faults []error
	for maxTicks == 0 || ticks < maxTicks {
		done, terr := emu.Tick(ctx)
		if terr != nil {
			if ctx.Err() != nil {
				err = terr
				return
			}
			faults = append(faults, terr)
		}
		if done {
			break
		}
		ticks++
	}

	err = errors.Join(faults...)

	return
}
