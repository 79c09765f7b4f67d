package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/on-the-ground/composable_go/dependencies/clock"
	"github.com/on-the-ground/composable_go/examples/voicememos"
	"github.com/on-the-ground/composable_go/store"
	"github.com/spf13/cobra"
)

type VoiceMemosOptions struct {
	*RootOptions
	Record time.Duration
	Play   bool
}

func NewVoiceMemosCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VoiceMemosOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "voicememos",
		Short: "Record a voice memo with a simulated recorder and play it back",
		Long: `Record a voice memo with a simulated recorder and play it back.

Example:
  composable voicememos --record 3s --play`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoiceMemos(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Record, "record", 2*time.Second, "how long to record")
	cmd.Flags().BoolVar(&opts.Play, "play", false, "play the memo back once recorded")

	return cmd
}

func runVoiceMemos(cmd *cobra.Command, opts *VoiceMemosOptions) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := newSession(ctx, opts.config,
		clock.Bindings(clock.Live()),
		voicememos.Bindings(voicememos.Environment{
			Recorder:     &voicememos.SimulatedRecorder{},
			Player:       voicememos.SimulatedPlayer{Length: opts.Record},
			OpenSettings: func(context.Context) error { return nil },
			TempDir:      os.TempDir(),
		}),
	)
	if err != nil {
		return err
	}
	defer sess.close()

	s := store.New(sess.ctx, voicememos.State{}, voicememos.Feature(), sess.options...)
	defer s.Close()

	stopObserving := store.Observe(s,
		func(st voicememos.State) time.Duration {
			if st.Recording == nil {
				return -1
			}
			return st.Recording.Duration
		},
		nil,
		func(d time.Duration) {
			if d >= 0 {
				fmt.Fprintf(out, "recording %v\n", d)
			}
		},
	)
	defer stopObserving()

	s.Send(voicememos.RecordButtonTapped{})
	st, err := waitFor(sess.ctx, s, func(st voicememos.State) bool {
		return st.Recording != nil || st.Alert != nil
	})
	if err != nil {
		return err
	}
	if st.Alert != nil {
		return fmt.Errorf("voicememos: %s", st.Alert.Title)
	}

	if err := clock.From(sess.ctx).Sleep(sess.ctx, opts.Record); err != nil {
		return err
	}
	s.Send(voicememos.RecordButtonTapped{})
	st, err = waitFor(sess.ctx, s, func(st voicememos.State) bool {
		return st.Recording == nil
	})
	if err != nil {
		return err
	}
	if st.Alert != nil {
		return fmt.Errorf("voicememos: %s", st.Alert.Title)
	}

	if opts.Play && st.Memos.Len() > 0 {
		memo := st.Memos.At(0)
		s.Send(voicememos.MemoActionOf{ID: memo.URL, Action: voicememos.PlayButtonTapped{}})
		st, err = waitFor(sess.ctx, s, func(st voicememos.State) bool {
			m, ok := st.Memos.Get(memo.URL)
			return !ok || !m.Mode.Playing
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "played %s\n", memo.URL)
	}

	for _, m := range st.Memos.Elements() {
		fmt.Fprintf(out, "%s\t%v\t%s\n", m.Date.Format(time.RFC3339), m.Duration.Round(100*time.Millisecond), m.URL)
	}
	s.Close()
	return sess.printMetrics(out)
}
