// Package input turns key presses into playback commands.
package input

import (
	"fmt"
	"log"

	"github.com/eiannone/keyboard"
)

type Command uint8

const (
	None Command = iota
	Stop
	Pause // Toggles
)

// Translate maps a key press to its command.
func Translate(key keyboard.KeyEvent) Command {
	switch {
	case key.Key == keyboard.KeyEsc, key.Key == keyboard.KeyCtrlC, key.Rune == 'q':
		return Stop
	case key.Key == keyboard.KeySpace, key.Rune == 'p':
		return Pause
	}
	return None
}

// Listen reads the keyboard until the returned close function is called.
func Listen() (<-chan Command, func(), error) {
	keys, err := keyboard.GetKeys(128)
	if nil != err {
		return nil, nil, fmt.Errorf("unable to open keyboard: %w", err)
	}
	commands := make(chan Command, 16)
	go func() {
		defer close(commands)
		for key := range keys {
			if nil != key.Err {
				log.Println("unable to read keyboard input", key.Err)
				return
			}
			if c := Translate(key); c != None {
				commands <- c
			}
		}
	}()
	return commands, func() {
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard", err)
		}
	}, nil
}
