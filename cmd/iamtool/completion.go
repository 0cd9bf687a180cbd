package main

import "fmt"

// completionScript returns the shell completion script for shell.
func completionScript(shell string) (string, error) {
	switch shell {
	case "bash":
		return bashCompletion, nil
	case "powershell":
		return powerShellCompletion, nil
	default:
		return "", fmt.Errorf("invalid completion shell type %q (valid: bash, powershell)", shell)
	}
}

const bashCompletion = `# iamtool bash completion script
# Installation:
#   Linux: Copy to /etc/bash_completion.d/iamtool
#   Manual: source this file in your ~/.bashrc

_iamtool_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="-action -tenancy -user -fingerprint -keyfile -keypass -region
          -clientid -secret -domain -oldsuffix -newsuffix -batchsize -ratelimit
          -dryrun -includeunchanged -confirm -verbose -loglevel -logformat
          -version -help -completion"

    case "${prev}" in
        -action)
            COMPREPLY=( $(compgen -W "listdomains listusers migrateemail deletedomain" -- ${cur}) )
            return 0
            ;;
        -keyfile)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        -loglevel)
            COMPREPLY=( $(compgen -W "DEBUG INFO WARN ERROR" -- ${cur}) )
            return 0
            ;;
        -logformat)
            COMPREPLY=( $(compgen -W "csv json" -- ${cur}) )
            return 0
            ;;
        -completion)
            COMPREPLY=( $(compgen -W "bash powershell" -- ${cur}) )
            return 0
            ;;
    esac

    if [[ ${cur} == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
        return 0
    fi
}

complete -F _iamtool_completions iamtool
`

const powerShellCompletion = `# iamtool PowerShell completion script
# Installation: add this script to your $PROFILE

Register-ArgumentCompleter -Native -CommandName iamtool, iamtool.exe -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $flags = @('-action', '-tenancy', '-user', '-fingerprint', '-keyfile', '-keypass', '-region',
        '-clientid', '-secret', '-domain', '-oldsuffix', '-newsuffix', '-batchsize', '-ratelimit',
        '-dryrun', '-includeunchanged', '-confirm', '-verbose', '-loglevel', '-logformat',
        '-version', '-help', '-completion')

    $values = @{
        '-action'     = @('listdomains', 'listusers', 'migrateemail', 'deletedomain')
        '-loglevel'   = @('DEBUG', 'INFO', 'WARN', 'ERROR')
        '-logformat'  = @('csv', 'json')
        '-completion' = @('bash', 'powershell')
    }

    $prev = $commandAst.CommandElements | Select-Object -Last 1
    if ($prev -and $values.ContainsKey($prev.ToString()) -and $wordToComplete -eq '') {
        $values[$prev.ToString()] | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
        return
    }

    $flags | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)
    }
}
`
