package cli

import (
	"context"
	"fmt"

	"github.com/on-the-ground/composable_go/collections/stack"
	"github.com/on-the-ground/composable_go/dependencies/clock"
	"github.com/on-the-ground/composable_go/dependencies/persistence"
	"github.com/on-the-ground/composable_go/examples/syncups"
	"github.com/on-the-ground/composable_go/store"
	"github.com/spf13/cobra"
)

type SyncUpsOptions struct {
	*RootOptions
	Mock      bool
	Title     string
	Attendees []string
	Delete    []int
	Meeting   int
}

func NewSyncUpsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncUpsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "syncups",
		Short: "Load, add and delete sync-ups in an in-memory container",
		Long: `Load, add and delete sync-ups in an in-memory container.

Example:
  composable syncups --mock --add "Standup" --attendee Blob --attendee "Blob Jr" --delete 0 --meeting 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncUps(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Mock, "mock", false, "seed the container with mock sync-ups")
	cmd.Flags().StringVar(&opts.Title, "add", "", "title of a sync-up to add")
	cmd.Flags().StringArrayVar(&opts.Attendees, "attendee", nil, "attendee of the added sync-up (repeatable)")
	cmd.Flags().IntSliceVar(&opts.Delete, "delete", nil, "offsets of sync-ups to delete, after adding")
	cmd.Flags().IntVar(&opts.Meeting, "meeting", -1, "offset of a sync-up to open and record a meeting for, after deleting")

	return cmd
}

func runSyncUps(cmd *cobra.Command, opts *SyncUpsOptions) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := newSyncUpsContainer(ctx, opts.Mock)
	if err != nil {
		return err
	}
	defer container.Close()

	sess, err := newSession(ctx, opts.config,
		clock.Bindings(clock.Live()),
		stack.GeneratorBindings(stack.NewSequentialGenerator()),
		persistence.Bindings[syncups.SyncUp](syncups.ContainerName, container),
	)
	if err != nil {
		return err
	}
	defer sess.close()

	s := store.New(sess.ctx, syncups.AppState{}, syncups.AppFeature(), sess.options...)
	defer s.Close()
	list := store.Scope(s,
		func(st syncups.AppState) syncups.ListState { return st.List },
		func(a syncups.ListAction) syncups.AppAction { return syncups.ListActionOf{Action: a} },
	)

	if err := list.Send(syncups.OnTask{}).Wait(sess.ctx); err != nil {
		return err
	}
	if d := list.State().Destination; d != nil {
		if alert, ok := (*d).(syncups.Alert); ok {
			return fmt.Errorf("syncups: %s", alert.Title)
		}
	}

	if opts.Title != "" {
		if err := addSyncUp(sess.ctx, list, opts.Title, opts.Attendees); err != nil {
			return err
		}
	}
	if len(opts.Delete) > 0 {
		if err := list.Send(syncups.OnDelete{Offsets: opts.Delete}).Wait(sess.ctx); err != nil {
			return err
		}
	}

	if opts.Meeting >= 0 {
		if err := holdMeeting(sess.ctx, s, opts.Meeting); err != nil {
			return err
		}
	}

	stored, err := container.Fetch(sess.ctx)
	if err != nil {
		return err
	}
	for _, su := range stored {
		fmt.Fprintf(out, "%s\t%d attendees\t%v\t%d meetings\n", su.Title, su.Attendees.Len(), su.Duration, len(su.Meetings))
	}
	s.Close()
	return sess.printMetrics(out)
}

func newSyncUpsContainer(ctx context.Context, seed bool) (*persistence.Cached[syncups.SyncUp], error) {
	db, err := persistence.NewMemDB[syncups.SyncUp]()
	if err != nil {
		return nil, err
	}
	if seed {
		for _, su := range syncups.Mocks() {
			if err := db.Insert(ctx, su); err != nil {
				return nil, err
			}
		}
		if err := db.Save(ctx); err != nil {
			return nil, err
		}
	}
	return persistence.NewCached[syncups.SyncUp](db)
}

func addSyncUp(ctx context.Context, list *store.Store[syncups.ListState, syncups.ListAction], title string, attendees []string) error {
	send := func(a syncups.FormAction) {
		list.Send(syncups.DestinationActionOf{Action: syncups.AddAction{Action: a}})
	}
	focused := func() (syncups.FormState, bool) {
		d := list.State().Destination
		if d == nil {
			return syncups.FormState{}, false
		}
		add, ok := (*d).(syncups.AddSyncUp)
		return add.Form, ok
	}

	list.Send(syncups.AddSyncUpButtonTapped{})
	send(syncups.SetTitle{Title: title})
	for i, name := range attendees {
		if i > 0 {
			send(syncups.AddAttendeeButtonTapped{})
		}
		form, ok := focused()
		if !ok || form.Focus == nil {
			return fmt.Errorf("syncups: add form was dismissed")
		}
		send(syncups.SetAttendeeName{ID: *form.Focus, Name: name})
	}
	return list.Send(syncups.ConfirmAddSyncUpButtonTapped{}).Wait(ctx)
}

// holdMeeting opens the sync-up at offset, records one meeting through the
// detail's own store and closes the detail again.
func holdMeeting(ctx context.Context, s *store.Store[syncups.AppState, syncups.AppAction], offset int) error {
	list := s.State().List.SyncUps
	if offset >= list.Len() {
		return fmt.Errorf("syncups: no sync-up at offset %d", offset)
	}
	s.Send(syncups.ListActionOf{Action: syncups.SyncUpTapped{ID: list.At(offset).UUID}})
	id, _, ok := s.State().Path.Last()
	if !ok {
		return fmt.Errorf("syncups: detail was not opened")
	}

	detail := store.ScopeStackElement(s, "path",
		func(st syncups.AppState) stack.State[syncups.DetailState] { return st.Path },
		id,
		func(id stack.ElementID, a syncups.DetailAction) syncups.AppAction {
			return syncups.PathActionOf{Action: stack.Element[syncups.DetailState, syncups.DetailAction]{ID: id, Action: a}}
		},
	)
	detail.Send(syncups.StartMeetingButtonTapped{})
	if err := detail.Send(syncups.EndMeetingButtonTapped{}).Wait(ctx); err != nil {
		return err
	}

	pop := s.Send(syncups.PathActionOf{Action: stack.PopFrom[syncups.DetailState, syncups.DetailAction]{ID: id}})
	if detail.IsValid() {
		return fmt.Errorf("syncups: detail outlived its stack entry")
	}
	return pop.Wait(ctx)
}
