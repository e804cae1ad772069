// Package bind exposes cell-protected objects to an external host runtime.
//
// An Instance owns one value inside a cell.Cell and a table of methods the
// host may call. Read methods run under shared access, write methods under
// exclusive access:
//
//	player := bind.NewInstance("player", Player{HP: 100}).
//		Read("hp", func(_ context.Context, p Player, _ []any) (any, error) {
//			return p.HP, nil
//		}).
//		Write("damage", func(_ context.Context, p *Player, args []any) (any, error) {
//			n, err := bind.IntArg[int](args, 0)
//			if err != nil {
//				return nil, err
//			}
//			p.HP -= n
//			return p.HP, nil
//		})
//
//	reg := bind.NewRegistry()
//	reg.Register(player)
//	hp, err := reg.Invoke(ctx, "player", "damage", int64(10))
//
// Failures never unwind into the host. Every failed call returns a
// *CallError: access conflicts wrap the *cell.AccessError (including the
// acquisition-site report in diagnostic builds), and a panicking method is
// converted into ErrPanicked after its exclusive borrow has poisoned the
// cell.
//
// A method that calls back into the host may reach its own object again.
// Such re-entrant calls are rejected like any other conflicting access.
package bind
